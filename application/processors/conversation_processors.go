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

// GroupCreatedProcessor reacts to new group rows on the table stream and
// publishes the GroupCreated notification. Membership is re-fetched at
// processing time; the stream record only identifies the group.
type GroupCreatedProcessor struct {
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewGroupCreatedProcessor(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *GroupCreatedProcessor {
	return &GroupCreatedProcessor{
		conversationService: conversationService,
		relationshipService: relationshipService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *GroupCreatedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameInsert &&
		isConversationImage(record.Change.NewImage, entities.ConversationTypeGroup) &&
		stringAttr(record.Change.NewImage, attrID) != ""
}

func (p *GroupCreatedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	groupID := stringAttr(record.Change.NewImage, attrID)

	group, memberIDs, err := fetchConversationWithMembers(ctx, p.conversationService, p.relationshipService, groupID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("group gone before notification", zap.String("conversationId", groupID))
			return nil
		}
		return err
	}

	return p.publisher.SendGroupCreated(ctx, ports.GroupCreatedMessage{
		Group:          conversationSummary(group, memberIDs),
		GroupMemberIDs: memberIDs,
	})
}

// MeetingCreatedProcessor publishes MeetingCreated for new meeting rows.
type MeetingCreatedProcessor struct {
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewMeetingCreatedProcessor(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *MeetingCreatedProcessor {
	return &MeetingCreatedProcessor{
		conversationService: conversationService,
		relationshipService: relationshipService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *MeetingCreatedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameInsert &&
		isConversationImage(record.Change.NewImage, entities.ConversationTypeMeeting) &&
		stringAttr(record.Change.NewImage, attrID) != ""
}

func (p *MeetingCreatedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	meetingID := stringAttr(record.Change.NewImage, attrID)

	meeting, memberIDs, err := fetchConversationWithMembers(ctx, p.conversationService, p.relationshipService, meetingID)
	if err != nil {
		if errors.IsNotFound(err) {
			p.logger.Warn("meeting gone before notification", zap.String("conversationId", meetingID))
			return nil
		}
		return err
	}

	return p.publisher.SendMeetingCreated(ctx, ports.MeetingCreatedMessage{
		Meeting:          conversationSummary(meeting, memberIDs),
		MeetingMemberIDs: memberIDs,
	})
}

// FriendAddedProcessor reacts to new friend-conversation rows and notifies
// both sides with fully resolved user summaries.
type FriendAddedProcessor struct {
	relationshipService *services.RelationshipService
	userService         *services.UserService
	publisher           ports.NotificationPublisher
	logger              *zap.Logger
}

func NewFriendAddedProcessor(
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *FriendAddedProcessor {
	return &FriendAddedProcessor{
		relationshipService: relationshipService,
		userService:         userService,
		publisher:           publisher,
		logger:              logger,
	}
}

func (p *FriendAddedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameInsert &&
		isConversationImage(record.Change.NewImage, entities.ConversationTypeFriend) &&
		stringAttr(record.Change.NewImage, attrID) != ""
}

func (p *FriendAddedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	conversationID := stringAttr(record.Change.NewImage, attrID)
	createdBy := stringAttr(record.Change.NewImage, "CreatedBy")

	members, err := p.relationshipService.GetMembers(ctx, conversationID)
	if err != nil {
		return err
	}
	if len(members) != 2 {
		p.logger.Warn("friend conversation without two members",
			zap.String("conversationId", conversationID),
			zap.Int("members", len(members)))
		return nil
	}

	addingID, addedID := members[0].UserID, members[1].UserID
	if addedID == createdBy {
		addingID, addedID = addedID, addingID
	}

	users, err := p.userService.GetUsers(ctx, []string{addingID, addedID})
	if err != nil {
		return err
	}
	byID := make(map[string]*entities.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	adding, added := byID[addingID], byID[addedID]
	if adding == nil || added == nil {
		p.logger.Warn("friend member rows without user rows",
			zap.String("conversationId", conversationID))
		return nil
	}

	return p.publisher.SendUserAddedAsFriend(ctx, ports.UserAddedAsFriendMessage{
		AddingUser: ports.ConversationMember{ConversationID: conversationID, User: userSummary(adding)},
		AddedUser:  ports.ConversationMember{ConversationID: conversationID, User: userSummary(added)},
	})
}

// FriendRemovedProcessor reacts to friend-conversation removals.
type FriendRemovedProcessor struct {
	publisher ports.NotificationPublisher
	logger    *zap.Logger
}

func NewFriendRemovedProcessor(publisher ports.NotificationPublisher, logger *zap.Logger) *FriendRemovedProcessor {
	return &FriendRemovedProcessor{publisher: publisher, logger: logger}
}

func (p *FriendRemovedProcessor) DetermineRecordSupport(record events.DynamoDBEventRecord) bool {
	return record.EventName == eventNameRemove &&
		isConversationImage(record.Change.OldImage, entities.ConversationTypeFriend) &&
		stringAttr(record.Change.OldImage, "CreatedBy") != "" &&
		len(stringSetAttr(record.Change.OldImage, "InitialMemberIDs")) == 2
}

func (p *FriendRemovedProcessor) ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	conversationID := stringAttr(record.Change.OldImage, attrID)
	createdBy := stringAttr(record.Change.OldImage, "CreatedBy")

	// The member rows go in the same transaction as the root, so the pair is
	// recovered from the root's membership snapshot rather than re-fetched.
	memberIDs := stringSetAttr(record.Change.OldImage, "InitialMemberIDs")
	removedID := memberIDs[0]
	if removedID == createdBy {
		removedID = memberIDs[1]
	}

	p.logger.Info("friend conversation removed",
		zap.String("conversationId", conversationID),
		zap.String("userId", createdBy),
		zap.String("removedUserId", removedID))

	return p.publisher.SendUserRemovedAsFriend(ctx, ports.UserRemovedAsFriendMessage{
		UserID:        createdBy,
		RemovedUserID: removedID,
	})
}

// fetchConversationWithMembers re-fetches the conversation and the current
// member ids, so downstream payloads reflect processing-time membership and
// not the possibly stale stream record.
func fetchConversationWithMembers(
	ctx context.Context,
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	conversationID string,
) (*entities.Conversation, []string, error) {
	conversation, err := conversationService.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	memberIDs, err := relationshipService.MemberIDs(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	return conversation, memberIDs, nil
}
