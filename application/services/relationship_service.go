package services

import (
	"context"
	"time"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"go.uber.org/zap"
)

// RelationshipService owns the per-member read-state rows: membership,
// unread sets and the recency sort keys that order a user's conversation
// list.
type RelationshipService struct {
	relationshipRepo ports.RelationshipRepository
	logger           *zap.Logger
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(relationshipRepo ports.RelationshipRepository, logger *zap.Logger) *RelationshipService {
	return &RelationshipService{
		relationshipRepo: relationshipRepo,
		logger:           logger,
	}
}

// OnMessageCreated fans a new message out to every member's read state: each
// non-sender gets the message id added to their unread set, the sender only
// gets the recency bump. Every row records the message as most recent. Each
// update is a set mutation, so replays converge on the same state.
func (s *RelationshipService) OnMessageCreated(ctx context.Context, conversationID string, memberIDs []string, messageID, from string) error {
	if conversationID == "" || messageID == "" {
		return errors.NewValidationError("conversationID and messageID are required")
	}

	now := time.Now().UTC()

	for _, memberID := range memberIDs {
		var err error
		if memberID == from {
			err = s.relationshipRepo.Touch(ctx, conversationID, memberID, messageID, now)
		} else {
			err = s.relationshipRepo.AddUnreadMessage(ctx, conversationID, memberID, messageID)
		}
		if err != nil {
			// A member removed between the message write and the fan-out is
			// not an error; their row is simply gone.
			if errors.IsNotFound(err) {
				s.logger.Warn("skipping fan-out to absent member",
					zap.String("conversationId", conversationID),
					zap.String("userId", memberID),
					zap.String("messageId", messageID))
				continue
			}
			s.logger.Error("failed to fan out message to member",
				zap.String("conversationId", conversationID),
				zap.String("userId", memberID),
				zap.String("messageId", messageID),
				zap.Error(err))
			return err
		}
	}

	s.logger.Info("message fanned out to members",
		zap.String("conversationId", conversationID),
		zap.String("messageId", messageID),
		zap.Int("members", len(memberIDs)))

	return nil
}

// MarkSeen removes (or, when seen is false, re-adds) message ids in one
// member's unread set. Removing ids that are not present is a no-op, and
// removing the last id deletes the attribute rather than leaving an empty
// set.
func (s *RelationshipService) MarkSeen(ctx context.Context, conversationID, userID string, messageIDs []string, seen bool) error {
	if len(messageIDs) == 0 {
		return nil
	}

	var err error
	if seen {
		err = s.relationshipRepo.RemoveUnreadMessages(ctx, conversationID, userID, messageIDs)
	} else {
		err = s.relationshipRepo.AddUnreadMessages(ctx, conversationID, userID, messageIDs)
	}
	if err != nil {
		s.logger.Error("failed to update unread set",
			zap.String("conversationId", conversationID),
			zap.String("userId", userID),
			zap.Bool("seen", seen),
			zap.Error(err))
		return err
	}

	return nil
}

// CreateRelationship adds a member row to an existing conversation.
func (s *RelationshipService) CreateRelationship(ctx context.Context, conversation *entities.Conversation, userID string, role entities.Role) (*entities.ConversationUserRelationship, error) {
	relationship, err := entities.NewRelationship(conversation, userID, role)
	if err != nil {
		return nil, err
	}

	if err := s.relationshipRepo.Create(ctx, relationship); err != nil {
		return nil, err
	}

	s.logger.Info("relationship created",
		zap.String("conversationId", conversation.ID),
		zap.String("userId", userID),
		zap.String("role", string(role)))

	return relationship, nil
}

// DeleteRelationship removes a member row.
func (s *RelationshipService) DeleteRelationship(ctx context.Context, conversationID, userID string) error {
	if err := s.relationshipRepo.Delete(ctx, conversationID, userID); err != nil {
		return err
	}

	s.logger.Info("relationship deleted",
		zap.String("conversationId", conversationID),
		zap.String("userId", userID))

	return nil
}

// GetMembers returns every member's relationship row for a conversation.
func (s *RelationshipService) GetMembers(ctx context.Context, conversationID string) ([]*entities.ConversationUserRelationship, error) {
	return s.relationshipRepo.GetByConversationID(ctx, conversationID)
}

// MemberIDs returns the member ids of a conversation.
func (s *RelationshipService) MemberIDs(ctx context.Context, conversationID string) ([]string, error) {
	members, err := s.relationshipRepo.GetByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// GetRelationshipsByUser pages one user's relationship rows, ordered and
// filtered per the query.
func (s *RelationshipService) GetRelationshipsByUser(ctx context.Context, query ports.RelationshipQuery) (*ports.RelationshipPage, error) {
	return s.relationshipRepo.GetByUserID(ctx, query)
}

// GetRelationship returns one member's row.
func (s *RelationshipService) GetRelationship(ctx context.Context, conversationID, userID string) (*entities.ConversationUserRelationship, error) {
	return s.relationshipRepo.Get(ctx, conversationID, userID)
}

// IsMember reports whether the user has a relationship row for the
// conversation.
func (s *RelationshipService) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	_, err := s.relationshipRepo.Get(ctx, conversationID, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsAdmin reports whether the user holds the admin role in the conversation.
func (s *RelationshipService) IsAdmin(ctx context.Context, conversationID, userID string) (bool, error) {
	relationship, err := s.relationshipRepo.Get(ctx, conversationID, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return relationship.IsAdmin(), nil
}
