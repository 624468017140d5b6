// Swanprojectsd backs the SWAN project-management UI with an HTTP API.
//
// It serves project create/edit/info, the stacks catalogue and the kernel
// spec path switch, and shells out to the external kernel tool when a
// project's software environment changes.
//
// Configuration comes from ~/.config/swanprojects/config.yaml overlaid with
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	swanprojectsd
//
//	# Configure via environment
//	SERVER_HTTP_PORT=8899 PROJECTS_ROOT=/data/projects swanprojectsd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/swan-cern/swanprojects/internal/config"
	swanhttp "github.com/swan-cern/swanprojects/internal/http"
	"github.com/swan-cern/swanprojects/internal/kernels"
	"github.com/swan-cern/swanprojects/internal/logging"
	"github.com/swan-cern/swanprojects/internal/project"
	"github.com/swan-cern/swanprojects/internal/stacks"
	"github.com/swan-cern/swanprojects/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/swanprojects/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  swanprojectsd           Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  swanprojectsd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("swanprojectsd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Loads the stacks catalogue (and starts the watcher when enabled)
//  4. Wires the project store, kernel-path tracker and kernel runner
//  5. Starts the HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting swanprojectsd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("projects_root", cfg.Projects.Root),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	tel, err := telemetry.New("swanprojects")
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	store, err := project.NewStore(cfg.Projects.Root, home, logger)
	if err != nil {
		return fmt.Errorf("failed to create project store: %w", err)
	}
	tracker := project.NewTracker(store)

	stacksSvc, err := stacks.NewService(cfg.Stacks.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to create stacks service: %w", err)
	}
	if err := stacksSvc.Load(); err != nil {
		return fmt.Errorf("failed to load stacks catalogue: %w", err)
	}
	if cfg.Stacks.Watch {
		go func() {
			if err := stacksSvc.Watch(ctx); err != nil && err != context.Canceled {
				logger.Warn("stacks watcher stopped", zap.Error(err))
			}
		}()
	}

	runner, err := kernels.NewRunner(
		cfg.Kernels.Tool,
		cfg.Kernels.Shell,
		home,
		cfg.Kernels.PassEnv,
		cfg.Kernels.Timeout.Duration(),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create kernel runner: %w", err)
	}

	srv, err := swanhttp.NewServer(store, tracker, stacksSvc, runner, logger, &swanhttp.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		BasePath:  cfg.Server.BasePath,
		StaticDir: cfg.Server.StaticDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	srv.Echo().GET("/metrics", echo.WrapHandler(tel.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", cfg.Server.BasePath+"/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh
	}
}
