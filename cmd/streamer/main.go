package main

import (
	"context"
	"log/slog"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/couchcryptid/cloudlogs-streamer/internal/adapter/cwlogs"
	"github.com/couchcryptid/cloudlogs-streamer/internal/adapter/elasticsearch"
	lambdaadapter "github.com/couchcryptid/cloudlogs-streamer/internal/adapter/lambda"
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

	var signer elasticsearch.Signer
	if cfg.ESSignRequests {
		s, err := elasticsearch.LoadSigV4Signer(context.Background(), cfg.AWSRegion)
		if err != nil {
			logger.Error("failed to load aws credentials", "error", err)
			os.Exit(1)
		}
		signer = s
	}

	client := elasticsearch.NewClient(cfg.ESEndpoint, cfg.ESTimeout, signer, metrics, logger)
	transformer := pipeline.NewTransformer(cwlogs.Decode, domain.Options{
		ApplicationLogsIndex: cfg.ApplicationLogsIndex,
		APILogsIndex:         cfg.APILogsIndex,
		OmitType:             cfg.ESOmitType,
	}, logger)
	loader := pipeline.NewLoader(client, logger)

	p := pipeline.New(nil, transformer, loader, logger, metrics)
	h := lambdaadapter.NewHandler(p, cfg.FailOnDeliveryError, logger)

	logger.Info("lambda handler starting", "endpoint", cfg.ESEndpoint, "signed", cfg.ESSignRequests)
	awslambda.Start(h.Handle)
}
