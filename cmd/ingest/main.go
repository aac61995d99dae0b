// The ingest Lambda sits behind API Gateway and accepts question
// submissions (POST) and question listings (GET).
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/config"
	"github.com/torolabs/go-qa-backend/internal/handlers"
	"github.com/torolabs/go-qa-backend/internal/observability"
	"github.com/torolabs/go-qa-backend/internal/pubsub"
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

	if cfg.ProcessTopicARN == "" {
		log.Fatal().Msg("PROCESS_TOPIC_ARN must be set")
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

	questions := store.NewQuestionStore(dynamodb.NewFromConfig(awsCfg), cfg.QuestionsTable)
	publisher := pubsub.NewPublisher(sns.NewFromConfig(awsCfg))
	svc := services.NewIngestService(questions, publisher, cfg.ProcessTopicARN)

	lambda.Start(handlers.NewIngest(svc).Handle)
}
