package services

import (
	"context"
	"time"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"go.uber.org/zap"
)

// ConversationService creates and tears down conversation roots together
// with their membership rows, so no root ever exists without members.
type ConversationService struct {
	conversationRepo ports.ConversationRepository
	logger           *zap.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(conversationRepo ports.ConversationRepository, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		logger:           logger,
	}
}

// CreateGroup writes the group and the creator's admin row in a single
// transaction.
func (s *ConversationService) CreateGroup(ctx context.Context, name, createdBy, teamID, organizationID string) (*entities.Conversation, error) {
	group, err := entities.NewGroupConversation(name, createdBy, teamID, organizationID)
	if err != nil {
		return nil, err
	}

	creator, err := entities.NewRelationship(group, createdBy, entities.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.CreateWithMembers(ctx, group, []*entities.ConversationUserRelationship{creator}); err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		zap.String("conversationId", group.ID),
		zap.String("createdBy", createdBy))

	return group, nil
}

// CreateMeeting writes the meeting and the creator's admin row in a single
// transaction.
func (s *ConversationService) CreateMeeting(ctx context.Context, name, createdBy, teamID, organizationID string, dueDate time.Time) (*entities.Conversation, error) {
	meeting, err := entities.NewMeetingConversation(name, createdBy, teamID, organizationID, dueDate)
	if err != nil {
		return nil, err
	}

	creator, err := entities.NewRelationship(meeting, createdBy, entities.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.CreateWithMembers(ctx, meeting, []*entities.ConversationUserRelationship{creator}); err != nil {
		return nil, err
	}

	s.logger.Info("meeting created",
		zap.String("conversationId", meeting.ID),
		zap.String("createdBy", createdBy),
		zap.Time("dueDate", dueDate))

	return meeting, nil
}

// CreateFriendConversation writes the friend conversation with both members'
// rows in one transaction.
func (s *ConversationService) CreateFriendConversation(ctx context.Context, userID, friendID string) (*entities.Conversation, error) {
	if userID == friendID {
		return nil, errors.NewValidationError("cannot add yourself as a friend")
	}

	conversation, err := entities.NewFriendConversation(userID)
	if err != nil {
		return nil, err
	}

	adding, err := entities.NewRelationship(conversation, userID, entities.RoleUser)
	if err != nil {
		return nil, err
	}
	added, err := entities.NewRelationship(conversation, friendID, entities.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.CreateWithMembers(ctx, conversation, []*entities.ConversationUserRelationship{adding, added}); err != nil {
		return nil, err
	}

	s.logger.Info("friend conversation created",
		zap.String("conversationId", conversation.ID),
		zap.String("userId", userID),
		zap.String("friendId", friendID))

	return conversation, nil
}

// DeleteFriendConversation removes the friend conversation and both members'
// rows in one transaction.
func (s *ConversationService) DeleteFriendConversation(ctx context.Context, conversationID string, userIDs []string) error {
	if err := s.conversationRepo.DeleteWithMembers(ctx, conversationID, userIDs); err != nil {
		return err
	}

	s.logger.Info("friend conversation deleted",
		zap.String("conversationId", conversationID))

	return nil
}

// GetConversation retrieves a conversation by id.
func (s *ConversationService) GetConversation(ctx context.Context, id string) (*entities.Conversation, error) {
	return s.conversationRepo.GetByID(ctx, id)
}

// GetConversations batch-retrieves conversations, skipping absent ids.
func (s *ConversationService) GetConversations(ctx context.Context, ids []string) ([]*entities.Conversation, error) {
	return s.conversationRepo.GetByIDs(ctx, ids)
}

// DeleteConversation removes a conversation root.
func (s *ConversationService) DeleteConversation(ctx context.Context, id string) error {
	return s.conversationRepo.Delete(ctx, id)
}
