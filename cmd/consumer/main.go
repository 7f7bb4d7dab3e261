package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/cloudlogs-streamer/internal/adapter/cwlogs"
	"github.com/couchcryptid/cloudlogs-streamer/internal/adapter/elasticsearch"
	httpadapter "github.com/couchcryptid/cloudlogs-streamer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cloudlogs-streamer/internal/adapter/kafka"
	"github.com/couchcryptid/cloudlogs-streamer/internal/config"
	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/couchcryptid/cloudlogs-streamer/internal/observability"
	"github.com/couchcryptid/cloudlogs-streamer/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireDelivery(); err != nil {
		slog.Error("invalid delivery config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var signer elasticsearch.Signer
	if cfg.ESSignRequests {
		s, err := elasticsearch.LoadSigV4Signer(ctx, cfg.AWSRegion)
		if err != nil {
			logger.Error("failed to load aws credentials", "error", err)
			os.Exit(1)
		}
		signer = s
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	client := elasticsearch.NewClient(cfg.ESEndpoint, cfg.ESTimeout, signer, metrics, logger)

	transformer := pipeline.NewTransformer(cwlogs.Decode, domain.Options{
		ApplicationLogsIndex: cfg.ApplicationLogsIndex,
		APILogsIndex:         cfg.APILogsIndex,
		OmitType:             cfg.ESOmitType,
	}, logger)
	loader := pipeline.NewLoader(client, logger)

	var opts []pipeline.Option
	if !cfg.FailOnDeliveryError {
		opts = append(opts, pipeline.CommitOnDeliveryError())
	}
	p := pipeline.New(reader, transformer, loader, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start consume loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}

	logger.Info("shutdown complete")
}
