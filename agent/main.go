package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ctolnik/activity-monitor/agent/config"
	"github.com/ctolnik/activity-monitor/agent/logger"
	"github.com/ctolnik/activity-monitor/agent/monitoring"
	"github.com/ctolnik/activity-monitor/zapctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	configPath  = flag.String("config", "config.yaml", "Path to config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
	version     = "1.0.0"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = zapctx.WithLogger(ctx, log)
	ctx = zapctx.WithFields(ctx,
		zap.String("session_id", uuid.NewString()),
		zap.String("computer_name", cfg.Agent.ComputerName))

	zapctx.Info(ctx, "Activity monitor starting",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Duration("poll_interval", cfg.ActivityMonitoring.Interval()),
		zap.String("output", cfg.Report.Output))

	out, closeOut, err := openOutput(cfg.Report.Output)
	if err != nil {
		zapctx.Error(ctx, "Failed to open report output", zap.Error(err))
		return 1
	}
	defer closeOut()

	agent := NewAgent(cfg, monitoring.NewSystemHookPump(), monitoring.NewSystemWindowSource(), out)
	if err := agent.Run(ctx); err != nil {
		if errors.Is(err, monitoring.ErrHookInstall) {
			zapctx.Error(ctx, "Failed to install input hooks", zap.Error(err))
		} else {
			zapctx.Error(ctx, "Agent failed", zap.Error(err))
		}
		return 1
	}
	return 0
}

// openOutput resolves report.output to a writer. Files are opened in
// append mode.
func openOutput(target string) (io.Writer, func(), error) {
	switch target {
	case "", "stdout", "-":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	}

	if dir := filepath.Dir(target); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
