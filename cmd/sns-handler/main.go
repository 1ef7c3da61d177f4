// Package main implements the Lambda handler for inbound SNS notifications:
// transcription and transcoding results, billing plan changes, and external
// provider signups.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"converse-backend/application/processors"
	"converse-backend/infrastructure/config"
	"converse-backend/infrastructure/di"
)

var dispatcher *processors.SNSDispatcher

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	dispatcher = container.SNSDispatcher

	log.Println("SNS handler initialized successfully")
}

// Handler processes a batch of SNS records. Errors surface to the substrate
// for redelivery; the processors are idempotent under replay.
func Handler(ctx context.Context, event events.SNSEvent) error {
	return dispatcher.HandleEvent(ctx, event)
}

func main() {
	lambda.Start(Handler)
}
