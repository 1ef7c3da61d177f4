package processors

import (
	"context"

	"converse-backend/application/ports"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// MessageCreatedProcessor is the single writer of unread state off the table
// stream: each new message row fans the message id out into every
// non-sender's unread set, then publishes the kind-specific created
// notification. Both steps converge under replay, so a redelivered record is
// harmless.
type MessageCreatedProcessor struct {
	messageService      *services.MessageService
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	userService         *services.UserService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewMessageCreatedProcessor(
	messageService *services.MessageService,
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *MessageCreatedProcessor {
	return &MessageCreatedProcessor{
		messageService:      messageService,
		conversationService: conversationService,
		relationshipService: relationshipService,
		userService:         userService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *MessageCreatedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameInsert &&
		stringAttr(record.Change.NewImage, attrEntityType) == imageEntityMessage &&
		stringAttr(record.Change.NewImage, attrID) != "" &&
		stringAttr(record.Change.NewImage, attrConversationID) != "" &&
		stringAttr(record.Change.NewImage, attrFrom) != ""
}

func (p *MessageCreatedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	messageID := stringAttr(record.Change.NewImage, attrID)
	conversationID := stringAttr(record.Change.NewImage, attrConversationID)
	from := stringAttr(record.Change.NewImage, attrFrom)

	conversation, err := p.conversationService.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("conversation gone before message fan-out",
				zap.String("conversationId", conversationID),
				zap.String("messageId", messageID))
			return nil
		}
		return err
	}

	members, err := p.relationshipService.GetMembers(ctx, conversationID)
	if err != nil {
		return err
	}
	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.UserID)
	}

	if err := p.relationshipService.OnMessageCreated(ctx, conversationID, memberIDs, messageID, from); err != nil {
		return err
	}

	return p.publishCreated(ctx, conversation, memberIDs, messageID, from)
}

func (p *MessageCreatedProcessor) publishCreated(ctx context.Context, conversation *entities.Conversation, memberIDs []string, messageID, from string) error {
	message, err := p.messageService.GetMessage(ctx, messageID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("message gone before notification", zap.String("messageId", messageID))
			return nil
		}
		return err
	}

	sender, err := p.resolveSender(ctx, from)
	if err != nil {
		return err
	}
	summary := messageSummary(message, sender)

	switch conversation.Type {
	case entities.ConversationTypeFriend:
		for _, memberID := range memberIDs {
			if memberID == from {
				continue
			}
			recipient, err := p.resolveSender(ctx, memberID)
			if err != nil {
				return err
			}
			if err := p.publisher.SendFriendMessageCreated(ctx, ports.FriendMessageCreatedMessage{
				ConversationID: conversation.ID,
				To:             recipient,
				Message:        summary,
			}); err != nil {
				return err
			}
		}
		return nil
	case entities.ConversationTypeMeeting:
		return p.publisher.SendMeetingMessageCreated(ctx, ports.MeetingMessageCreatedMessage{
			Meeting:          conversationSummary(conversation, memberIDs),
			Message:          summary,
			MeetingMemberIDs: memberIDs,
		})
	default:
		return p.publisher.SendGroupMessageCreated(ctx, ports.GroupMessageCreatedMessage{
			Group:          conversationSummary(conversation, memberIDs),
			Message:        summary,
			GroupMemberIDs: memberIDs,
		})
	}
}

func (p *MessageCreatedProcessor) resolveSender(ctx context.Context, userID string) (ports.UserSummary, error) {
	user, err := p.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ports.UserSummary{ID: userID}, nil
		}
		return ports.UserSummary{}, err
	}
	return userSummary(user), nil
}

// MessageUpdatedProcessor publishes the kind-specific updated notification on
// every message modification (seen state, reactions, reply counts).
type MessageUpdatedProcessor struct {
	messageService      *services.MessageService
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	userService         *services.UserService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewMessageUpdatedProcessor(
	messageService *services.MessageService,
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *MessageUpdatedProcessor {
	return &MessageUpdatedProcessor{
		messageService:      messageService,
		conversationService: conversationService,
		relationshipService: relationshipService,
		userService:         userService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *MessageUpdatedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameModify &&
		stringAttr(record.Change.NewImage, attrEntityType) == imageEntityMessage &&
		stringAttr(record.Change.NewImage, attrID) != "" &&
		stringAttr(record.Change.NewImage, attrConversationID) != ""
}

func (p *MessageUpdatedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	messageID := stringAttr(record.Change.NewImage, attrID)
	conversationID := stringAttr(record.Change.NewImage, attrConversationID)

	message, err := p.messageService.GetMessage(ctx, messageID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("message gone before update notification", zap.String("messageId", messageID))
			return nil
		}
		return err
	}

	conversation, err := p.conversationService.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	memberIDs, err := p.relationshipService.MemberIDs(ctx, conversationID)
	if err != nil {
		return err
	}

	sender, err := p.resolveSender(ctx, message.From)
	if err != nil {
		return err
	}
	summary := messageSummary(message, sender)

	switch conversation.Type {
	case entities.ConversationTypeFriend:
		for _, memberID := range memberIDs {
			if memberID == message.From {
				continue
			}
			recipient, err := p.resolveSender(ctx, memberID)
			if err != nil {
				return err
			}
			if err := p.publisher.SendFriendMessageUpdated(ctx, ports.FriendMessageUpdatedMessage{
				ConversationID: conversation.ID,
				To:             recipient,
				Message:        summary,
			}); err != nil {
				return err
			}
		}
		return nil
	case entities.ConversationTypeMeeting:
		return p.publisher.SendMeetingMessageUpdated(ctx, ports.MeetingMessageUpdatedMessage{
			Meeting:          conversationSummary(conversation, memberIDs),
			Message:          summary,
			MeetingMemberIDs: memberIDs,
		})
	default:
		return p.publisher.SendGroupMessageUpdated(ctx, ports.GroupMessageUpdatedMessage{
			Group:          conversationSummary(conversation, memberIDs),
			Message:        summary,
			GroupMemberIDs: memberIDs,
		})
	}
}

func (p *MessageUpdatedProcessor) resolveSender(ctx context.Context, userID string) (ports.UserSummary, error) {
	user, err := p.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ports.UserSummary{ID: userID}, nil
		}
		return ports.UserSummary{}, err
	}
	return userSummary(user), nil
}
