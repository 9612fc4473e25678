// Command processor ingests variant score files, normalizes them per
// experiment, and writes the filtered mutation matrix with its coverage
// report. It is the first stage of the pipeline; analyzer picks up from its
// artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mavecli/internal/config"
	"mavecli/internal/exporter"
	"mavecli/internal/infrastructure"
	"mavecli/internal/operations"
	"mavecli/internal/services"
)

var version = "dev"

func main() {
	inDir := flag.String("in", "", "input directory for score files (overrides configured data dir)")
	outDir := flag.String("out", "", "output directory for artifacts (overrides configured results dir)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inDir != "" {
		cfg.Paths.DataDir = *inDir
	}
	if *outDir != "" {
		cfg.Paths.ResultsDir = *outDir
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

	tracingShutdown, err := infrastructure.InitTracing("mavecli-processor", version, io.Discard)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("starting score processing",
		slog.String("input_dir", cfg.Paths.DataDir),
		slog.String("output_dir", cfg.Paths.ResultsDir),
		slog.Int("coverage_threshold", cfg.Analysis.CoverageThreshold))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := exporter.NewCSVWriter(cfg.Paths.ResultsDir, logger)
	manager := operations.NewManager(services.NewPipelineSteps(cfg, writer, logger), logger)

	result, err := manager.Run(ctx, services.StepIDProcess)
	tracingShutdown(context.Background())
	if err != nil {
		logger.Error("processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("processing complete",
		slog.String("run_id", result.RunID),
		slog.String("matrix_file", writer.Path(exporter.MatrixFile)),
		slog.String("coverage_file", writer.Path(exporter.CoverageFile)))
	fmt.Println("Processing complete")
}
