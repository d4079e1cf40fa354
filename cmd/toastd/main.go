// Package main is the entry point for the toastd trigger file daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/daemon"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/toastd/toastd.toml)")
	triggerPath := flag.String("trigger", "", "Override the trigger file path from the config")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("toastd version", version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "toastd:", err)
		os.Exit(1)
	}
	var opts []daemon.Option
	if *triggerPath != "" {
		opts = append(opts, daemon.WithTriggerOverride(*triggerPath))
	}

	// Set up structured logging
	level, _ := config.ParseLogLevel(cfg.Log.Level)
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	trigger := cfg.Trigger.Path
	if *triggerPath != "" {
		trigger = *triggerPath
	}
	logger.Info("starting toastd", "version", version, "trigger", trigger,
		"interval", cfg.Trigger.Interval.Duration())

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Run(ctx, cfg, *configPath, logger, opts...); err != nil {
		logger.Error("toastd exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("toastd stopped")
}
