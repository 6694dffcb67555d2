package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movelend/backend"
	"movelend/chain"
	"movelend/config"
	"movelend/gateway"
	"movelend/journal"
	"movelend/observability/logging"
	telemetry "movelend/observability/otel"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to movelendd configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// Logging is not configured yet.
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.Setup("movelendd", cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	logger.Info("configuration loaded", "config", cfg.Sanitized())

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "movelendd",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		logger.Error("initialise telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	contract, err := cfg.ContractAddress()
	if err != nil {
		logger.Error("parse contract address", "error", err)
		os.Exit(1)
	}

	backendClient, err := backend.New(backend.Config{
		BaseURL:           cfg.Backend.URL,
		BearerToken:       cfg.Backend.BearerToken,
		Timeout:           cfg.Backend.Timeout.Std(),
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	})
	if err != nil {
		logger.Error("configure backend client", "error", err)
		os.Exit(1)
	}

	nodeClient, err := chain.NewHTTPClient(chain.ClientConfig{
		BaseURL: cfg.Node.URL,
		Timeout: cfg.Node.Timeout.Std(),
	})
	if err != nil {
		logger.Error("configure node client", "error", err)
		os.Exit(1)
	}

	var history gateway.HistorySource
	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Error("open journal", "path", cfg.Journal.Path, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		history = store
		logger.Info("journal opened", "path", cfg.Journal.Path)
	}

	server, err := gateway.New(gateway.Config{
		Source:   backendClient,
		Node:     nodeClient,
		History:  history,
		Contract: contract,
	})
	if err != nil {
		logger.Error("configure gateway", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}
