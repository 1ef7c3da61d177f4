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

// isMembershipImage reports whether the image is a group or meeting
// relationship row. Friend membership changes ride on the conversation root
// and are handled by the friend processors.
func isMembershipImage(image map[string]events.DynamoDBAttributeValue) bool {
	if stringAttr(image, attrEntityType) != imageEntityRelationship {
		return false
	}
	convType := entities.ConversationType(stringAttr(image, "ConversationType"))
	return convType == entities.ConversationTypeGroup || convType == entities.ConversationTypeMeeting
}

// UserAddedProcessor reacts to new group/meeting membership rows and
// publishes UserAddedToGroup with processing-time membership, not the
// record's snapshot.
type UserAddedProcessor struct {
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	userService         *services.UserService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewUserAddedProcessor(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *UserAddedProcessor {
	return &UserAddedProcessor{
		conversationService: conversationService,
		relationshipService: relationshipService,
		userService:         userService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *UserAddedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameInsert &&
		isMembershipImage(record.Change.NewImage) &&
		stringAttr(record.Change.NewImage, attrConversationID) != "" &&
		stringAttr(record.Change.NewImage, attrUserID) != ""
}

func (p *UserAddedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	conversationID := stringAttr(record.Change.NewImage, attrConversationID)
	userID := stringAttr(record.Change.NewImage, attrUserID)

	conversation, memberIDs, err := fetchConversationWithMembers(ctx, p.conversationService, p.relationshipService, conversationID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("conversation gone before member notification",
				zap.String("conversationId", conversationID),
				zap.String("userId", userID))
			return nil
		}
		return err
	}

	// The founding membership is announced by the created notification.
	if userID == conversation.CreatedBy {
		return nil
	}

	user, err := p.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("member row without user row",
				zap.String("conversationId", conversationID),
				zap.String("userId", userID))
			return nil
		}
		return err
	}

	return p.publisher.SendUserAddedToGroup(ctx, ports.UserAddedToGroupMessage{
		Group:          conversationSummary(conversation, memberIDs),
		User:           userSummary(user),
		GroupMemberIDs: memberIDs,
	})
}

// UserRemovedProcessor reacts to removed group/meeting membership rows.
type UserRemovedProcessor struct {
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	userService         *services.UserService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewUserRemovedProcessor(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *UserRemovedProcessor {
	return &UserRemovedProcessor{
		conversationService: conversationService,
		relationshipService: relationshipService,
		userService:         userService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *UserRemovedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameRemove &&
		isMembershipImage(record.Change.OldImage) &&
		stringAttr(record.Change.OldImage, attrConversationID) != "" &&
		stringAttr(record.Change.OldImage, attrUserID) != ""
}

func (p *UserRemovedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	conversationID := stringAttr(record.Change.OldImage, attrConversationID)
	userID := stringAttr(record.Change.OldImage, attrUserID)

	conversation, memberIDs, err := fetchConversationWithMembers(ctx, p.conversationService, p.relationshipService, conversationID)
	if err != nil {
		// The whole conversation went with the membership; nothing to notify.
		if errors.IsNotFound(err) {
			p.logger.Warn("conversation gone before removal notification",
				zap.String("conversationId", conversationID),
				zap.String("userId", userID))
			return nil
		}
		return err
	}

	user, err := p.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	return p.publisher.SendUserRemovedFromGroup(ctx, ports.UserRemovedFromGroupMessage{
		Group:          conversationSummary(conversation, memberIDs),
		User:           userSummary(user),
		GroupMemberIDs: memberIDs,
	})
}
