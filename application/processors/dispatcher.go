package processors

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// StreamDispatcher routes each table-stream record to every processor that
// claims it. A record no processor claims is skipped; a processing error is
// returned so the substrate redelivers the batch, which every processor
// tolerates.
type StreamDispatcher struct {
	processors []StreamRecordProcessor
	logger     *zap.Logger
}

func NewStreamDispatcher(logger *zap.Logger, procs ...StreamRecordProcessor) *StreamDispatcher {
	return &StreamDispatcher{processors: procs, logger: logger}
}

func (d *StreamDispatcher) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		claimed := false
		for _, processor := range d.processors {
			if !processor.DetermineRecordSupport(record) {
				continue
			}
			claimed = true
			if err := processor.ProcessRecord(ctx, record); err != nil {
				d.logger.Error("stream record processing failed",
					zap.String("eventId", record.EventID),
					zap.String("eventName", record.EventName),
					zap.Error(err))
				return err
			}
		}
		if !claimed {
			d.logger.Debug("unsupported stream record skipped",
				zap.String("eventId", record.EventID),
				zap.String("eventName", record.EventName))
		}
	}
	return nil
}

// SNSDispatcher routes inbound SNS records under the same contract.
type SNSDispatcher struct {
	processors []SNSRecordProcessor
	logger     *zap.Logger
}

func NewSNSDispatcher(logger *zap.Logger, procs ...SNSRecordProcessor) *SNSDispatcher {
	return &SNSDispatcher{processors: procs, logger: logger}
}

func (d *SNSDispatcher) HandleEvent(ctx context.Context, event events.SNSEvent) error {
	for _, record := range event.Records {
		claimed := false
		for _, processor := range d.processors {
			if !processor.DetermineRecordSupport(record) {
				continue
			}
			claimed = true
			if err := processor.ProcessRecord(ctx, record); err != nil {
				d.logger.Error("sns record processing failed",
					zap.String("messageId", record.SNS.MessageID),
					zap.String("topicArn", record.SNS.TopicArn),
					zap.Error(err))
				return err
			}
		}
		if !claimed {
			d.logger.Debug("unsupported sns record skipped",
				zap.String("messageId", record.SNS.MessageID),
				zap.String("topicArn", record.SNS.TopicArn))
		}
	}
	return nil
}
