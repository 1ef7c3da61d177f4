package sns

import (
	"context"
	"encoding/json"

	apperrors "converse-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// Publisher serializes payloads and publishes them to an SNS topic. No
// retries here: a failed publish propagates so the caller's redelivery
// substrate re-runs the whole record.
type Publisher struct {
	client *sns.Client
	logger *zap.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(client *sns.Client, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

// Publish marshals payload to JSON and publishes it to topicARN.
func (p *Publisher) Publish(ctx context.Context, topicARN string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal notification payload",
			zap.Error(err),
			zap.String("topicARN", topicARN),
		)
		return apperrors.NewInternalError("marshal notification payload").WithCause(err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		p.logger.Error("Failed to publish notification",
			zap.Error(err),
			zap.String("topicARN", topicARN),
		)
		return apperrors.NewExternalError("sns", err)
	}

	p.logger.Debug("Notification published",
		zap.String("topicARN", topicARN),
		zap.Int("bytes", len(body)),
	)
	return nil
}
