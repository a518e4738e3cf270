// Command culturecored runs the culture operations and inventory service.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"culturecore/internal/adapters/rest"
	"culturecore/internal/blob"
	"culturecore/internal/core"
	"culturecore/internal/logging"
)

func main() {
	logger, closeLog, err := logging.Setup(logging.FromEnv())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLog()

	store, err := core.OpenPersistentStore(core.DefaultRulesEngine())
	if err != nil {
		logger.Error("failed to open persistent store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobStore, err := blob.Open(ctx)
	if err != nil {
		logger.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	svc := core.NewService(store,
		core.WithMetricsRecorder(metrics),
		core.WithAttachmentStore(blob.NewAttachments(blobStore)),
	)

	server := rest.NewServer(svc, logger,
		rest.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	addr := os.Getenv("CULTURECORE_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}
}
