package main

import (
	"context"
	"log/slog"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/couchcryptid/cloudlogs-streamer/internal/adapter/ses"
	"github.com/couchcryptid/cloudlogs-streamer/internal/config"
	"github.com/couchcryptid/cloudlogs-streamer/internal/email"
	"github.com/couchcryptid/cloudlogs-streamer/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	sender, err := ses.LoadSender(context.Background(), cfg.AWSRegion)
	if err != nil {
		logger.Error("failed to load aws credentials", "error", err)
		os.Exit(1)
	}

	h := email.NewHandler(sender, logger)
	awslambda.Start(h.Handle)
}
