package processors

import (
	"context"
	"encoding/json"

	"converse-backend/application/ports"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Inbound SNS payloads. Each processor sniffs the record body and claims it
// only when its required fields are present.
//
// The media pipeline addresses messages by their pending id: the messageId
// field on its callbacks names the pending row, not the converted message.

type MessageTranscribedEvent struct {
	PendingMessageID string `json:"messageId"`
	Transcript       string `json:"transcript"`
}

type MessageTranscodedEvent struct {
	Key              string `json:"key"`
	PendingMessageID string `json:"messageId"`
	MimeType         string `json:"newMimeType"`
}

type BillingPlanUpdatedEvent struct {
	OrganizationID string `json:"organizationId"`
	BillingPlan    string `json:"billingPlan"`
}

type ExternalProviderUserSignedUpEvent struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
}

// MessageTranscribedProcessor converts pending messages once their
// transcript arrives. The transcription callback is at-least-once: a second
// delivery finds the pending row gone and succeeds as a no-op.
type MessageTranscribedProcessor struct {
	messageService *services.MessageService
	logger         *zap.Logger
}

func NewMessageTranscribedProcessor(messageService *services.MessageService, logger *zap.Logger) *MessageTranscribedProcessor {
	return &MessageTranscribedProcessor{messageService: messageService, logger: logger}
}

func (p *MessageTranscribedProcessor) DetermineRecordSupport(record events.SNSEventRecord) bool {
	var event MessageTranscribedEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return false
	}
	return event.PendingMessageID != "" && event.Transcript != ""
}

func (p *MessageTranscribedProcessor) ProcessRecord(ctx context.Context, record events.SNSEventRecord) error {
	var event MessageTranscribedEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return errors.NewValidationError("malformed transcription payload").WithCause(err)
	}

	message, err := p.messageService.ConvertPendingToMessage(ctx, event.PendingMessageID, event.Transcript)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsConflict(err) {
			p.logger.Info("transcription already applied",
				zap.String("pendingMessageId", event.PendingMessageID))
			return nil
		}
		p.logger.Error("failed to convert pending message",
			zap.String("pendingMessageId", event.PendingMessageID),
			zap.Error(err))
		return err
	}

	p.logger.Info("transcription applied",
		zap.String("pendingMessageId", event.PendingMessageID),
		zap.String("messageId", message.ID))
	return nil
}

// MessageTranscodedProcessor records the post-transcoding mime type on the
// pending row. A pending row already converted means transcription won the
// race; nothing left to record.
type MessageTranscodedProcessor struct {
	messageService *services.MessageService
	logger         *zap.Logger
}

func NewMessageTranscodedProcessor(messageService *services.MessageService, logger *zap.Logger) *MessageTranscodedProcessor {
	return &MessageTranscodedProcessor{messageService: messageService, logger: logger}
}

func (p *MessageTranscodedProcessor) DetermineRecordSupport(record events.SNSEventRecord) bool {
	var event MessageTranscodedEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return false
	}
	return event.PendingMessageID != "" && event.MimeType != ""
}

func (p *MessageTranscodedProcessor) ProcessRecord(ctx context.Context, record events.SNSEventRecord) error {
	var event MessageTranscodedEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return errors.NewValidationError("malformed transcoding payload").WithCause(err)
	}

	if err := p.messageService.UpdatePendingMessageMimeType(ctx, event.PendingMessageID, event.MimeType); err != nil {
		if errors.IsNotFound(err) {
			p.logger.Info("pending message already converted",
				zap.String("pendingMessageId", event.PendingMessageID))
			return nil
		}
		return err
	}

	return nil
}

// BillingPlanUpdatedProcessor applies billing plan changes pushed by the
// billing system.
type BillingPlanUpdatedProcessor struct {
	organizationRepo ports.OrganizationRepository
	logger           *zap.Logger
}

func NewBillingPlanUpdatedProcessor(organizationRepo ports.OrganizationRepository, logger *zap.Logger) *BillingPlanUpdatedProcessor {
	return &BillingPlanUpdatedProcessor{organizationRepo: organizationRepo, logger: logger}
}

func (p *BillingPlanUpdatedProcessor) DetermineRecordSupport(record events.SNSEventRecord) bool {
	var event BillingPlanUpdatedEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return false
	}
	plan := entities.BillingPlan(event.BillingPlan)
	return event.OrganizationID != "" &&
		(plan == entities.BillingPlanFree || plan == entities.BillingPlanPaid)
}

func (p *BillingPlanUpdatedProcessor) ProcessRecord(ctx context.Context, record events.SNSEventRecord) error {
	var event BillingPlanUpdatedEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return errors.NewValidationError("malformed billing payload").WithCause(err)
	}

	err := p.organizationRepo.UpdateBillingPlan(ctx, event.OrganizationID, entities.BillingPlan(event.BillingPlan))
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("billing update for unknown organization",
				zap.String("organizationId", event.OrganizationID))
			return nil
		}
		return err
	}

	p.logger.Info("billing plan updated",
		zap.String("organizationId", event.OrganizationID),
		zap.String("billingPlan", event.BillingPlan))
	return nil
}

// ExternalProviderUserSignedUpProcessor provisions a user row for accounts
// created through the external identity provider. The provider redelivers;
// an existing claim on any unique property means the user is already here.
type ExternalProviderUserSignedUpProcessor struct {
	userService *services.UserService
	logger      *zap.Logger
}

func NewExternalProviderUserSignedUpProcessor(userService *services.UserService, logger *zap.Logger) *ExternalProviderUserSignedUpProcessor {
	return &ExternalProviderUserSignedUpProcessor{userService: userService, logger: logger}
}

func (p *ExternalProviderUserSignedUpProcessor) DetermineRecordSupport(record events.SNSEventRecord) bool {
	var event ExternalProviderUserSignedUpEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return false
	}
	return event.Email != "" || event.Username != "" || event.Phone != ""
}

func (p *ExternalProviderUserSignedUpProcessor) ProcessRecord(ctx context.Context, record events.SNSEventRecord) error {
	var event ExternalProviderUserSignedUpEvent
	if err := json.Unmarshal([]byte(record.SNS.Message), &event); err != nil {
		return errors.NewValidationError("malformed signup payload").WithCause(err)
	}

	user, err := p.userService.CreateUser(ctx, event.Email, event.Username, event.Phone, event.Name)
	if err != nil {
		if errors.IsConflict(err) {
			p.logger.Info("user already provisioned",
				zap.String("username", event.Username))
			return nil
		}
		return err
	}

	p.logger.Info("external user provisioned", zap.String("userId", user.ID))
	return nil
}
