// Command analyzer runs the numeric stages of the pipeline against the
// matrix written by processor: cross-validated neighbor selection, kNN
// imputation, and the per-mutation effect analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mavecli/internal/config"
	"mavecli/internal/exporter"
	"mavecli/internal/infrastructure"
	"mavecli/internal/operations"
	"mavecli/internal/services"
)

var version = "dev"

func main() {
	resultsDir := flag.String("results", "", "artifacts directory (overrides configured results dir)")
	steps := flag.String("steps", "validate,impute,analyze", "comma-separated steps to run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *resultsDir != "" {
		cfg.Paths.ResultsDir = *resultsDir
	}
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	tracingShutdown, err := infrastructure.InitTracing("mavecli-analyzer", version, io.Discard)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var stepIDs []string
	for _, step := range strings.Split(*steps, ",") {
		if step = strings.TrimSpace(step); step != "" {
			stepIDs = append(stepIDs, step)
		}
	}

	logger.Info("starting analysis",
		slog.String("results_dir", cfg.Paths.ResultsDir),
		slog.Any("steps", stepIDs),
		slog.Any("neighbor_candidates", cfg.Analysis.NeighborCandidates),
		slog.Int("folds", cfg.Analysis.Folds))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := exporter.NewCSVWriter(cfg.Paths.ResultsDir, logger)
	manager := operations.NewManager(services.NewPipelineSteps(cfg, writer, logger), logger)

	result, err := manager.Run(ctx, stepIDs...)
	tracingShutdown(context.Background())
	if err != nil {
		logger.Error("analysis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("analysis complete",
		slog.String("run_id", result.RunID),
		slog.String("analysis_file", writer.Path(exporter.AnalysisFile)),
		slog.String("summary_file", writer.Path(exporter.SummaryFile)))
	fmt.Println("Analysis complete")
}
