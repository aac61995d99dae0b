// The notify Lambda consumes notify-events from SNS and pushes question
// status updates to connected WebSocket clients.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/config"
	"github.com/torolabs/go-qa-backend/internal/handlers"
	"github.com/torolabs/go-qa-backend/internal/observability"
	"github.com/torolabs/go-qa-backend/internal/realtime"
	"github.com/torolabs/go-qa-backend/internal/services"
	"github.com/torolabs/go-qa-backend/internal/store"
	"github.com/torolabs/go-qa-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.InitLogger(cfg.LogLevel)

	if cfg.WebSocketEndpoint == "" {
		log.Fatal().Msg("WEBSOCKET_API_ENDPOINT must be set")
	}

	ctx := context.Background()
	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() { _ = shutdown(ctx) }()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("aws configuration failed")
	}

	dynamo := dynamodb.NewFromConfig(awsCfg)
	questions := store.NewQuestionStore(dynamo, cfg.QuestionsTable)
	connections := store.NewConnectionStore(dynamo, cfg.ConnectionsTable)
	pusher := realtime.NewPusher(apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(cfg.WebSocketEndpoint)
	}))
	svc := services.NewNotifyService(questions, connections, pusher)

	lambda.Start(handlers.NewNotify(svc).Handle)
}
