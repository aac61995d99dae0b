// The websocket Lambda handles the API Gateway WebSocket lifecycle routes
// and keeps the connection registry current.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/config"
	"github.com/torolabs/go-qa-backend/internal/handlers"
	"github.com/torolabs/go-qa-backend/internal/services"
	"github.com/torolabs/go-qa-backend/internal/store"
	"github.com/torolabs/go-qa-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.InitLogger(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("aws configuration failed")
	}

	connections := store.NewConnectionStore(dynamodb.NewFromConfig(awsCfg), cfg.ConnectionsTable)
	svc := services.NewConnectionService(connections)

	lambda.Start(handlers.NewWebSocket(svc).Handle)
}
