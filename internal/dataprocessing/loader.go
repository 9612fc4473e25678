package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mavecli/internal/hgvs"
	"mavecli/pkg/contracts/domain"
)

// Column names expected in every score file. MaveDB exports use exactly
// these headers.
const (
	notationColumn = "hgvs_pro"
	scoreColumn    = "score"
)

// Loader reads raw assay score files from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadDir reads every *.csv and *.xlsx score file in dir into raw records.
// The experiment id of each record is the filename stem (everything before
// the first dot). Returns an InputError when the directory holds no score
// files or the files hold no records.
func (l *Loader) LoadDir(dir string) ([]domain.RawRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &InputError{Message: fmt.Sprintf("read input directory %s", dir), Cause: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, NewInputError("no score files (*.csv, *.xlsx) found in %s", dir)
	}

	var records []domain.RawRecord
	for _, name := range names {
		path := filepath.Join(dir, name)
		experimentID := experimentIDFromFilename(name)

		var fileRecords []domain.RawRecord
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			fileRecords, err = l.loadExcel(path, experimentID)
		} else {
			fileRecords, err = l.loadCSV(path, experimentID)
		}
		if err != nil {
			return nil, err
		}

		l.logger.Info("loaded score file",
			slog.String("file", name),
			slog.String("experiment_id", experimentID),
			slog.Int("records", len(fileRecords)))
		records = append(records, fileRecords...)
	}

	if len(records) == 0 {
		return nil, NewInputError("score files in %s contain no records", dir)
	}

	l.logger.Info("raw data loaded",
		slog.Int("files", len(names)),
		slog.Int("total_records", len(records)))
	return records, nil
}

// loadCSV reads one CSV score file.
func (l *Loader) loadCSV(path, experimentID string) ([]domain.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Message: fmt.Sprintf("open %s", path), Cause: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &InputError{Message: fmt.Sprintf("read header of %s", path), Cause: err}
	}
	notationIdx, scoreIdx, err := locateColumns(header, path)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &InputError{Message: fmt.Sprintf("read %s line %d", path, line+1), Cause: err}
		}
		line++

		record, ok, err := parseRow(row, notationIdx, scoreIdx, experimentID, path, line)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// loadExcel reads the first sheet of an Excel workbook using the same column
// contract as the CSV files.
func (l *Loader) loadExcel(path, experimentID string) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &InputError{Message: fmt.Sprintf("open %s", path), Cause: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewInputError("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &InputError{Message: fmt.Sprintf("read sheet %q of %s", sheets[0], path), Cause: err}
	}
	if len(rows) == 0 {
		return nil, NewInputError("sheet %q of %s is empty", sheets[0], path)
	}

	notationIdx, scoreIdx, err := locateColumns(rows[0], path)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for i, row := range rows[1:] {
		record, ok, err := parseRow(row, notationIdx, scoreIdx, experimentID, path, i+2)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// locateColumns finds the notation and score columns by header name.
func locateColumns(header []string, path string) (notationIdx, scoreIdx int, err error) {
	notationIdx, scoreIdx = -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case notationColumn:
			notationIdx = i
		case scoreColumn:
			scoreIdx = i
		}
	}
	if notationIdx == -1 || scoreIdx == -1 {
		return 0, 0, NewInputError("%s is missing required columns %q and/or %q",
			path, notationColumn, scoreColumn)
	}
	return notationIdx, scoreIdx, nil
}

// parseRow converts one data row into a raw record. Rows that are entirely
// empty are skipped; a row with a notation but no parsable score is a fatal
// input error, because silently dropping scored observations would bias the
// downstream statistics.
func parseRow(row []string, notationIdx, scoreIdx int, experimentID, path string, line int) (domain.RawRecord, bool, error) {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	notation := cell(notationIdx)
	scoreText := cell(scoreIdx)

	if notation == "" && scoreText == "" {
		return domain.RawRecord{}, false, nil
	}
	if scoreText == "" || strings.EqualFold(scoreText, "na") || strings.EqualFold(scoreText, "nan") {
		// Unscored variant rows appear in some exports; they carry no signal.
		return domain.RawRecord{}, false, nil
	}

	score, err := strconv.ParseFloat(scoreText, 64)
	if err != nil {
		return domain.RawRecord{}, false, &InputError{
			Message: fmt.Sprintf("%s line %d: unparsable score %q", path, line, scoreText),
			Cause:   err,
		}
	}

	return domain.RawRecord{
		ExperimentID: experimentID,
		Notation:     notation,
		Score:        score,
	}, true, nil
}

// experimentIDFromFilename derives the stable experiment id from a file name:
// everything before the first dot, matching how the source datasets are named.
func experimentIDFromFilename(name string) string {
	if idx := strings.Index(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}

// Explode expands raw records into one mutation record per atomic mutation.
// Records whose notation is absent or synonymous produce nothing; each atomic
// mutation inherits its record's experiment id and raw score.
func Explode(records []domain.RawRecord) []domain.MutationRecord {
	var exploded []domain.MutationRecord
	for _, rec := range records {
		for _, mutation := range hgvs.Parse(rec.Notation) {
			exploded = append(exploded, domain.MutationRecord{
				Mutation:     mutation,
				ExperimentID: rec.ExperimentID,
				Score:        rec.Score,
			})
		}
	}
	return exploded
}
