package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavecli/internal/config"
	"mavecli/internal/effect"
	apierrors "mavecli/internal/errors"
	"mavecli/internal/exporter"
	"mavecli/internal/services"
	"mavecli/pkg/contracts/domain"
)

func newAnalysisRouter(t *testing.T) (chi.Router, *exporter.CSVWriter) {
	t.Helper()
	writer := exporter.NewCSVWriter(t.TempDir(), nil)
	service := services.NewAnalysisService(config.Default().Analysis, writer, nil)
	handler := NewAnalysisHandler(service, nil, apierrors.NewErrorHandler(nil, false))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, writer
}

func get(t *testing.T, router chi.Router, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestAnalysisEndpointsNotReady(t *testing.T) {
	router, _ := newAnalysisRouter(t)

	for _, path := range []string{"/coverage", "/validation", "/summary", "/summary/mutations", "/summary/top", "/heatmap"} {
		rec, body := get(t, router, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", path)
		assert.Equal(t, "RESULT_NOT_READY", body["error_code"], "path %s", path)
	}
}

func TestGetCoverage(t *testing.T) {
	router, writer := newAnalysisRouter(t)
	require.NoError(t, writer.WriteJSON(exporter.CoverageFile, domain.CoverageReport{
		TotalMutations:    5,
		RetainedMutations: 3,
		CoverageThreshold: 2,
	}))

	rec, body := get(t, router, "/coverage")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), body["total_mutations"])
	assert.Equal(t, float64(3), body["well_covered_mutations"])
}

func TestGetHeatmap(t *testing.T) {
	router, writer := newAnalysisRouter(t)

	m := effect.NewEmptyMatrix([]string{"Ala10Gly"}, []string{"exp_a", "exp_b"})
	m.Values[0][0] = -0.75
	require.NoError(t, writer.WriteMatrix(exporter.MatrixFile, m))

	rec, body := get(t, router, "/heatmap")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	cells, ok := body["cells"].([]any)
	require.True(t, ok)
	cell := cells[0].(map[string]any)
	assert.Equal(t, "Ala10Gly", cell["mutation"])
	assert.Equal(t, "exp_a", cell["experiment_id"])
	assert.Equal(t, -0.75, cell["z_score"])
}

func TestGetTop(t *testing.T) {
	router, writer := newAnalysisRouter(t)

	m := effect.NewEmptyMatrix([]string{"bad", "good"}, []string{"e1", "e2"})
	m.Values[0][0] = -2
	m.Values[0][1] = -1.8
	m.Values[1][0] = 1.5
	m.Values[1][1] = 1.7
	require.NoError(t, writer.WriteMatrix(exporter.ImputedFile, m))

	rec, body := get(t, router, "/summary/top?metric=most_beneficial&n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "most_beneficial", body["metric"])
	assert.Equal(t, float64(1), body["count"])

	mutations := body["mutations"].([]any)
	require.Len(t, mutations, 1)
	assert.Equal(t, "good", mutations[0].(map[string]any)["mutation"])
}

func TestGetTopInvalidParameters(t *testing.T) {
	router, writer := newAnalysisRouter(t)

	m := effect.NewEmptyMatrix([]string{"a"}, []string{"e1"})
	m.Values[0][0] = 1
	require.NoError(t, writer.WriteMatrix(exporter.ImputedFile, m))

	tests := []struct {
		name string
		path string
	}{
		{name: "non numeric n", path: "/summary/top?n=abc"},
		{name: "zero n", path: "/summary/top?n=0"},
		{name: "unknown metric", path: "/summary/top?metric=shiniest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, router, tt.path)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
		})
	}
}

func TestGetSummaries(t *testing.T) {
	router, writer := newAnalysisRouter(t)

	m := effect.NewEmptyMatrix([]string{"a", "b"}, []string{"e1", "e2"})
	m.Values[0][0] = -2
	m.Values[0][1] = -1.6
	m.Values[1][0] = 0.1
	m.Values[1][1] = 0.2
	require.NoError(t, writer.WriteMatrix(exporter.ImputedFile, m))

	rec, body := get(t, router, "/summary/mutations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	mutations := body["mutations"].([]any)
	first := mutations[0].(map[string]any)
	assert.Equal(t, "a", first["mutation"])
	assert.Equal(t, string(domain.CategoryStrongDeleterious), first["effect_category"])
}
