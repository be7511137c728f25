package main

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hirosato/guarded-funds/internal/api/middleware"
	"github.com/hirosato/guarded-funds/internal/app"
	envconfig "github.com/hirosato/guarded-funds/internal/common/config"
)

var (
	logger  *slog.Logger
	handler middleware.APIGatewayHandler
)

func init() {
	cfg, err := envconfig.LoadFromEnv()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger = app.Logger(cfg)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	handler = a.UserHandler()
}

func handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Debug("api - Memory Status", "MB", m.Alloc/1024/1024)

	return handler(ctx, logger, request)
}

func main() {
	lambda.Start(handle)
}
