// Braindumpd is the brain-dump extraction daemon.
//
// It exposes the extraction pipeline over HTTP: transcript text (or
// timed spans) in, ordered actionable tasks out.
//
// Configuration is loaded from an optional YAML file plus environment
// overrides. See internal/config for details.
//
// Usage:
//
//	# Start daemon with defaults
//	braindumpd
//
//	# Configure via environment
//	SERVER_PORT=9090 EXTRACTION_PROVIDER=disabled braindumpd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/braindump/internal/config"
	"github.com/fyrsmithlabs/braindump/internal/extraction"
	"github.com/fyrsmithlabs/braindump/internal/httpapi"
	"github.com/fyrsmithlabs/braindump/internal/logging"
	"github.com/fyrsmithlabs/braindump/internal/pipeline"
	"github.com/fyrsmithlabs/braindump/internal/telemetry"
	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  braindumpd           Start the extraction daemon\n")
			fmt.Fprintf(os.Stderr, "  braindumpd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("braindumpd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger, err := logging.NewLogger(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Caller: true,
		Fields: map[string]string{"service": "braindumpd"},
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting braindumpd",
		zap.String("version", version),
		zap.String("mode", cfg.Extraction.Mode),
		zap.String("provider", cfg.Extraction.Provider))

	// Initialize telemetry; failures degrade, never abort startup.
	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			cfg.Telemetry.ShutdownTimeout.Duration())
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Extraction client
	client, err := extraction.NewClient(extraction.Config{
		Provider:  cfg.Extraction.Provider,
		Model:     cfg.Extraction.Model,
		APIKey:    cfg.Extraction.APIKey.Value(),
		BaseURL:   cfg.Extraction.BaseURL,
		MaxTokens: cfg.Extraction.MaxTokens,
		Timeout:   cfg.Extraction.Timeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}

	// Pipeline
	pipe, err := pipeline.New(pipeline.Options{
		Segmenter:   transcript.NewSegmenter(cfg.Segmenter.PauseThreshold.Duration()),
		Client:      client,
		Model:       cfg.Extraction.Model,
		Temperature: cfg.Extraction.Temperature,
		Upgrades:    cfg.Extraction.ModelUpgrades,
		Mode:        pipeline.Mode(cfg.Extraction.Mode),
		Logger:      logger,
		Meter:       tel.Meter("braindump"),
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	// HTTP server
	metrics := httpapi.NewHTTPMetrics(logger.Zap())
	server, err := httpapi.NewServer(pipe, logger, metrics, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
