// Command web serves the variant effect dashboard: REST API over the pipeline
// artifacts, live progress over WebSocket, and Prometheus metrics.
package main

import (
	"log/slog"
	"os"

	"mavecli/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application terminated with error", "error", err)
		os.Exit(1)
	}
}
