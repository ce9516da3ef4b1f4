package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/status-im/proxy-chain/chain"
	"github.com/status-im/proxy-chain/config"
	"github.com/status-im/proxy-chain/logging"
	"github.com/status-im/proxy-chain/metrics"
	"github.com/status-im/proxy-chain/runner"
	"github.com/status-im/proxy-chain/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Try the config file first, fall back to the environment
	cfg, err := config.Load()
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		return 1
	}

	var recorder *metrics.Metrics
	if cfg.Metrics.Enabled {
		recorder = metrics.New(metrics.Config{Namespace: cfg.Metrics.Namespace}, prometheus.DefaultRegisterer)
	}

	opts := []runner.Option{runner.WithLogger(logging.NewSlogLogger(logger))}
	if recorder != nil {
		opts = append(opts, runner.WithMetrics(recorder))
	}

	r, err := runner.New(cfg, opts...)
	if err != nil {
		logger.Error("Failed to create runner", "error", err)
		return 1
	}
	defer func() { _ = r.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *server.Server
	if cfg.Metrics.Enabled {
		srv, err = server.New(r.Manager(),
			server.WithMetricsPath(cfg.Metrics.Path),
			server.WithTokenSigner(r.Signer()))
		if err != nil {
			logger.Error("Failed to create admin server", "error", err)
			return 1
		}
		r.Manager().StartReporting(15 * time.Second)
		defer r.Manager().Stop()

		go func() {
			if err := srv.ListenAndServe(cfg.Metrics.ListenAddr); err != nil {
				logger.Error("Admin server error", "error", err)
			}
		}()
	}

	result, err := r.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Admin server shutdown failed", "error", err)
		}
		cancel()
	}

	if err != nil {
		logger.Error("Chain did not run", "error", err)
		return 1
	}

	for i, step := range result.Steps {
		attrs := []any{"index", i, "name", step.Name, "url", step.URL, "status", step.StatusCode, "bytes", step.Bytes}
		if step.Err != nil {
			logger.Warn("Step failed", append(attrs, "error", step.Err)...)
			continue
		}
		logger.Info("Step succeeded", attrs...)
	}

	if result.State != chain.StateCompleted {
		logger.Error("Chain finished", "chain", result.ChainID, "state", result.State.String(), "error", result.Err)
		return 1
	}
	logger.Info("Chain finished", "chain", result.ChainID, "state", result.State.String(), "steps", len(result.Steps))
	return 0
}
