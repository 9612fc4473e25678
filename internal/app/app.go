// Package app assembles the web server: configuration, logging, tracing, the
// WebSocket hub, the pipeline services, and the HTTP router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mavecli/internal/config"
	apierrors "mavecli/internal/errors"
	"mavecli/internal/exporter"
	"mavecli/internal/infrastructure"
	custommw "mavecli/internal/middleware"
	"mavecli/internal/operations"
	"mavecli/internal/services"
	handlers "mavecli/internal/transport/http"
	ws "mavecli/internal/websocket"
)

// Version is the application version, set at build time.
var Version = "dev"

// Application is the web server container.
type Application struct {
	Config            *config.Config
	Router            *chi.Mux
	Server            *http.Server
	Hub               *ws.Hub
	OperationsService *services.OperationsService
	AnalysisService   *services.AnalysisService
	Logger            *slog.Logger

	tracingShutdown func(context.Context) error
	traceFile       *os.File
}

// NewApplication creates a fully wired application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("results_dir", cfg.Paths.ResultsDir))

	traceFile, err := os.OpenFile(
		filepath.Join(cfg.Paths.LogsDir, "traces.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tracingShutdown, err := infrastructure.InitTracing("mavecli-web", Version, traceFile)
	if err != nil {
		traceFile.Close()
		return nil, fmt.Errorf("initialize tracing: %w", err)
	}

	app := &Application{
		Config:          cfg,
		Logger:          logger,
		tracingShutdown: tracingShutdown,
		traceFile:       traceFile,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.Hub = hub

	writer := exporter.NewCSVWriter(a.Config.Paths.ResultsDir, a.Logger)

	manager := operations.NewManager(services.NewPipelineSteps(a.Config, writer, a.Logger), a.Logger)
	manager.SetBroadcaster(hub)

	a.OperationsService = services.NewOperationsService(manager, a.Logger)
	a.AnalysisService = services.NewAnalysisService(a.Config.Analysis, writer, a.Logger)
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware only; anything that wraps the ResponseWriter breaks
	// the WebSocket upgrade.
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.HandleFunc("/ws", a.handleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.NewRateLimiter(
			a.Config.Server.RateLimitRPS,
			a.Config.Server.RateLimitBurst,
			a.Logger,
		).Handler)

		a.setupAPIRoutes(r)

		r.Get("/", handlers.ServeIndex(Version))
	})

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(Version, a.Hub, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)

		analysisHandler := handlers.NewAnalysisHandler(a.AnalysisService, a.Logger, errorHandler)
		analysisHandler.RegisterRoutes(r)

		operationsHandler := handlers.NewOperationsHandler(a.OperationsService, a.Logger, errorHandler)
		r.Mount("/operations", operationsHandler.Routes())
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// handleWebSocket upgrades the connection and hands it to the hub. The server
// binds locally, so cross-origin upgrades are allowed.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	ws.ServeWS(a.Hub, conn, a.Logger)
}

// Start launches the HTTP server. A listen failure cancels the run context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Hub.Stop()

	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "tracing shutdown failed", slog.String("error", err.Error()))
		}
	}
	if a.traceFile != nil {
		a.traceFile.Close()
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.Start(ctx, cancel)

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
