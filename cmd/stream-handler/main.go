// Package main implements the Lambda handler for table stream records.
// Inserted, modified, and removed rows drive read-state fan-out and the
// outbound notification topics.
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

var dispatcher *processors.StreamDispatcher

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	dispatcher = container.StreamDispatcher

	log.Println("Stream handler initialized successfully")
}

// Handler processes a batch of table stream records. Returning an error makes
// the substrate redeliver the batch, so every processor is written to
// tolerate replays.
func Handler(ctx context.Context, event events.DynamoDBEvent) error {
	return dispatcher.HandleEvent(ctx, event)
}

func main() {
	lambda.Start(Handler)
}
