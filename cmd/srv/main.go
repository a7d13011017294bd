package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/joho/godotenv"

	"github.com/webframp/changelogd/srv"
)

//	@title			changelogd API
//	@version		1.0
//	@description	Read and maintain a release changelog stored as a single JSON document.
//	@BasePath		/

var (
	flagListenAddr = flag.String("listen", ":8000", "address to listen on")
	flagEnvFile    = flag.String("env-file", ".env", "optional file of environment defaults")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	// Existing environment variables win over the file.
	if err := godotenv.Load(*flagEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", *flagEnvFile, err)
	}

	cfg := srv.ConfigFromEnv()

	if cfg.HoneycombAPIKey != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
		if err != nil {
			return fmt.Errorf("configure opentelemetry: %w", err)
		}
		defer otelShutdown()
	}

	server, err := srv.New(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if missing := cfg.Missing(true); len(missing) > 0 {
		slog.Warn("mutations disabled until configured", "missing", missing)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Markers.CreateDeployMarker(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(*flagListenAddr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
