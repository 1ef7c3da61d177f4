// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"
	"time"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"

	"github.com/stretchr/testify/mock"
)

// ConversationRepository mocks ports.ConversationRepository.
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Create(ctx context.Context, conversation *entities.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

func (m *ConversationRepository) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Conversation), args.Error(1)
}

func (m *ConversationRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Conversation, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Conversation), args.Error(1)
}

func (m *ConversationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ConversationRepository) CreateWithMembers(ctx context.Context, conversation *entities.Conversation, relationships []*entities.ConversationUserRelationship) error {
	args := m.Called(ctx, conversation, relationships)
	return args.Error(0)
}

func (m *ConversationRepository) DeleteWithMembers(ctx context.Context, conversationID string, userIDs []string) error {
	args := m.Called(ctx, conversationID, userIDs)
	return args.Error(0)
}

// RelationshipRepository mocks ports.RelationshipRepository.
type RelationshipRepository struct {
	mock.Mock
}

func (m *RelationshipRepository) Create(ctx context.Context, relationship *entities.ConversationUserRelationship) error {
	args := m.Called(ctx, relationship)
	return args.Error(0)
}

func (m *RelationshipRepository) Get(ctx context.Context, conversationID, userID string) (*entities.ConversationUserRelationship, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ConversationUserRelationship), args.Error(1)
}

func (m *RelationshipRepository) GetByConversationID(ctx context.Context, conversationID string) ([]*entities.ConversationUserRelationship, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ConversationUserRelationship), args.Error(1)
}

func (m *RelationshipRepository) GetByUserID(ctx context.Context, query ports.RelationshipQuery) (*ports.RelationshipPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RelationshipPage), args.Error(1)
}

func (m *RelationshipRepository) Delete(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *RelationshipRepository) AddUnreadMessage(ctx context.Context, conversationID, userID, messageID string) error {
	args := m.Called(ctx, conversationID, userID, messageID)
	return args.Error(0)
}

func (m *RelationshipRepository) RemoveUnreadMessages(ctx context.Context, conversationID, userID string, messageIDs []string) error {
	args := m.Called(ctx, conversationID, userID, messageIDs)
	return args.Error(0)
}

func (m *RelationshipRepository) AddUnreadMessages(ctx context.Context, conversationID, userID string, messageIDs []string) error {
	args := m.Called(ctx, conversationID, userID, messageIDs)
	return args.Error(0)
}

func (m *RelationshipRepository) Touch(ctx context.Context, conversationID, userID, recentMessageID string, at time.Time) error {
	args := m.Called(ctx, conversationID, userID, recentMessageID, at)
	return args.Error(0)
}

// MessageRepository mocks ports.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) GetByID(ctx context.Context, id string) (*entities.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Message), args.Error(1)
}

func (m *MessageRepository) GetByConversationID(ctx context.Context, conversationID string, limit int, exclusiveStartKey string) ([]*entities.Message, string, error) {
	args := m.Called(ctx, conversationID, limit, exclusiveStartKey)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]*entities.Message), args.String(1), args.Error(2)
}

func (m *MessageRepository) GetReplies(ctx context.Context, conversationID, messageID string) ([]*entities.Message, error) {
	args := m.Called(ctx, conversationID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Message), args.Error(1)
}

func (m *MessageRepository) UpdateSeenAt(ctx context.Context, messageID, userID string, seenAt *time.Time) error {
	args := m.Called(ctx, messageID, userID, seenAt)
	return args.Error(0)
}

func (m *MessageRepository) ApplyReactionChanges(ctx context.Context, messageID, userID string, changes []entities.ReactionChange) error {
	args := m.Called(ctx, messageID, userID, changes)
	return args.Error(0)
}

func (m *MessageRepository) CreatePendingMessage(ctx context.Context, pending *entities.PendingMessage) error {
	args := m.Called(ctx, pending)
	return args.Error(0)
}

func (m *MessageRepository) GetPendingMessage(ctx context.Context, id string) (*entities.PendingMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingMessage), args.Error(1)
}

func (m *MessageRepository) UpdatePendingMessageMimeType(ctx context.Context, id, mimeType string) error {
	args := m.Called(ctx, id, mimeType)
	return args.Error(0)
}

func (m *MessageRepository) ConvertPendingToMessage(ctx context.Context, pendingID string, message *entities.Message) error {
	args := m.Called(ctx, pendingID, message)
	return args.Error(0)
}

func (m *MessageRepository) CreateReplyWithCountIncrement(ctx context.Context, pendingID string, reply *entities.Message) error {
	args := m.Called(ctx, pendingID, reply)
	return args.Error(0)
}

// UserRepository mocks ports.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *UserRepository) GetByUniqueProperty(ctx context.Context, kind entities.UniquePropertyKind, value string) (*entities.User, error) {
	args := m.Called(ctx, kind, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// OrganizationRepository mocks ports.OrganizationRepository.
type OrganizationRepository struct {
	mock.Mock
}

func (m *OrganizationRepository) Create(ctx context.Context, organization *entities.Organization) error {
	args := m.Called(ctx, organization)
	return args.Error(0)
}

func (m *OrganizationRepository) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Organization), args.Error(1)
}

func (m *OrganizationRepository) UpdateBillingPlan(ctx context.Context, id string, plan entities.BillingPlan) error {
	args := m.Called(ctx, id, plan)
	return args.Error(0)
}

// NotificationPublisher mocks ports.NotificationPublisher.
type NotificationPublisher struct {
	mock.Mock
}

func (m *NotificationPublisher) SendGroupCreated(ctx context.Context, msg ports.GroupCreatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendMeetingCreated(ctx context.Context, msg ports.MeetingCreatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendUserAddedToGroup(ctx context.Context, msg ports.UserAddedToGroupMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendUserRemovedFromGroup(ctx context.Context, msg ports.UserRemovedFromGroupMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendUserAddedAsFriend(ctx context.Context, msg ports.UserAddedAsFriendMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendUserRemovedAsFriend(ctx context.Context, msg ports.UserRemovedAsFriendMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendFriendMessageCreated(ctx context.Context, msg ports.FriendMessageCreatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendGroupMessageCreated(ctx context.Context, msg ports.GroupMessageCreatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendMeetingMessageCreated(ctx context.Context, msg ports.MeetingMessageCreatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendFriendMessageUpdated(ctx context.Context, msg ports.FriendMessageUpdatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendGroupMessageUpdated(ctx context.Context, msg ports.GroupMessageUpdatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *NotificationPublisher) SendMeetingMessageUpdated(ctx context.Context, msg ports.MeetingMessageUpdatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// ConversationSearchIndex mocks ports.ConversationSearchIndex.
type ConversationSearchIndex struct {
	mock.Mock
}

func (m *ConversationSearchIndex) SearchConversationIDs(ctx context.Context, userID, searchTerm string, limit int) ([]string, error) {
	args := m.Called(ctx, userID, searchTerm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MessageFileStorage mocks ports.MessageFileStorage.
type MessageFileStorage struct {
	mock.Mock
}

func (m *MessageFileStorage) UploadURL(ctx context.Context, messageID, mimeType string) (string, error) {
	args := m.Called(ctx, messageID, mimeType)
	return args.String(0), args.Error(1)
}

func (m *MessageFileStorage) FetchURL(ctx context.Context, messageID string) (string, error) {
	args := m.Called(ctx, messageID)
	return args.String(0), args.Error(1)
}
