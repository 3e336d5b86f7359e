package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftlab/driftfs/internal/logger"
	"github.com/driftlab/driftfs/pkg/config"
	"github.com/driftlab/driftfs/pkg/fs"
	"github.com/driftlab/driftfs/pkg/posix"
)

// createInitialStructure seeds the filesystem with a small tree so an
// interactive session has something to look at.
func createInitialStructure(ctx context.Context, vfs *posix.VFS) error {
	if err := vfs.Mkdir(ctx, "/docs", 0o755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{"/readme.txt", "This is a README file.\nWelcome to driftfs!\n"},
		{"/docs/notes.txt", "Some notes about this virtual filesystem.\nIt's pretty cool!\n"},
	}

	for _, f := range files {
		fd, err := vfs.Open(ctx, f.name, posix.O_CREAT|posix.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.name, err)
		}
		if _, err := vfs.Write(ctx, fd, []byte(f.content)); err != nil {
			vfs.Close(fd)
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if err := vfs.Close(fd); err != nil {
			return fmt.Errorf("failed to close %s: %w", f.name, err)
		}
	}

	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure logger
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)
	switch cfg.Logging.Output {
	case "stdout", "":
		// Default destination.
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	fmt.Println("driftfs - virtual filesystem engine")
	logger.Info("Log level set to: %s", cfg.Logging.Level)
	logger.Info("Storage backend: %s (proxied=%t)", cfg.Storage.Type, cfg.Storage.Proxied)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics must be initialized before any backend is created so the
	// backends pick up real collectors instead of noops.
	metricsResult := config.InitializeMetrics(cfg)

	backend, closeBackend, err := config.CreateBackend(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	fsys, err := fs.New(ctx, backend)
	if err != nil {
		log.Fatalf("Failed to create filesystem: %v", err)
	}
	vfs := posix.New(fsys, metricsResult.FSMetrics)

	if err := createInitialStructure(ctx, vfs); err != nil {
		log.Fatalf("Failed to create initial structure: %v", err)
	}
	logger.Info("Initial file structure created")

	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("driftfs is running. Press Ctrl+C to stop.")
	<-sigChan

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if metricsResult.Server != nil {
		if err := metricsResult.Server.Stop(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error: %v", err)
		}
	}
	if err := closeBackend(); err != nil {
		logger.Error("Backend shutdown error: %v", err)
	}
}
