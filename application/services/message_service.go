package services

import (
	"context"
	"time"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"go.uber.org/zap"
)

// MessageService owns the message lifecycle: pending placeholders written at
// upload time, their conversion into full messages once the transcript
// arrives, and the per-member seen and reaction state afterwards.
type MessageService struct {
	messageRepo         ports.MessageRepository
	relationshipService *RelationshipService
	logger              *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(
	messageRepo ports.MessageRepository,
	relationshipService *RelationshipService,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:         messageRepo,
		relationshipService: relationshipService,
		logger:              logger,
	}
}

// CreatePendingMessage writes the upload placeholder for a new message.
func (s *MessageService) CreatePendingMessage(ctx context.Context, conversationID, from, mimeType, replyTo string) (*entities.PendingMessage, error) {
	pending, err := entities.NewPendingMessage(conversationID, from, mimeType, replyTo)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.CreatePendingMessage(ctx, pending); err != nil {
		return nil, err
	}

	s.logger.Info("pending message created",
		zap.String("pendingMessageId", pending.ID),
		zap.String("conversationId", conversationID),
		zap.String("from", from))

	return pending, nil
}

// GetPendingMessage retrieves a pending message by id.
func (s *MessageService) GetPendingMessage(ctx context.Context, id string) (*entities.PendingMessage, error) {
	return s.messageRepo.GetPendingMessage(ctx, id)
}

// UpdatePendingMessageMimeType rewrites a placeholder's mime type after
// transcoding. A not-found means the placeholder was already converted.
func (s *MessageService) UpdatePendingMessageMimeType(ctx context.Context, id, mimeType string) error {
	if mimeType == "" {
		return errors.NewValidationError("mimeType is required")
	}

	if err := s.messageRepo.UpdatePendingMessageMimeType(ctx, id, mimeType); err != nil {
		return err
	}

	s.logger.Info("pending message mime type updated",
		zap.String("pendingMessageId", id),
		zap.String("mimeType", mimeType))

	return nil
}

// ConvertPendingToMessage turns a pending placeholder into a full message
// once its transcript arrives. The message id is derived from the pending id,
// so a second delivery of the same transcript derives the same id and fails
// the conditional write instead of producing a duplicate. SeenAt starts
// complete over the current membership, with only the sender marked seen.
func (s *MessageService) ConvertPendingToMessage(ctx context.Context, pendingMessageID, transcript string) (*entities.Message, error) {
	pending, err := s.messageRepo.GetPendingMessage(ctx, pendingMessageID)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.relationshipService.MemberIDs(ctx, pending.ConversationID)
	if err != nil {
		return nil, err
	}

	messageID := entities.MessageIDFromPending(pendingMessageID, pending.ReplyTo != "")
	message, err := entities.NewMessage(messageID, pending.ConversationID, pending.From, pending.MimeType, transcript, pending.ReplyTo, memberIDs)
	if err != nil {
		return nil, err
	}

	if message.IsReply() {
		err = s.messageRepo.CreateReplyWithCountIncrement(ctx, pendingMessageID, message)
	} else {
		err = s.messageRepo.ConvertPendingToMessage(ctx, pendingMessageID, message)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("pending message converted",
		zap.String("pendingMessageId", pendingMessageID),
		zap.String("messageId", message.ID),
		zap.String("conversationId", message.ConversationID),
		zap.Bool("reply", message.IsReply()))

	return message, nil
}

// GetMessage retrieves a message by id.
func (s *MessageService) GetMessage(ctx context.Context, id string) (*entities.Message, error) {
	return s.messageRepo.GetByID(ctx, id)
}

// GetMessagesByConversation lists a conversation's root messages newest
// first; replies are excluded and reachable through GetRepliesByMessage.
func (s *MessageService) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, exclusiveStartKey string) ([]*entities.Message, string, error) {
	return s.messageRepo.GetByConversationID(ctx, conversationID, limit, exclusiveStartKey)
}

// GetRepliesByMessage lists the replies to a root message.
func (s *MessageService) GetRepliesByMessage(ctx context.Context, conversationID, messageID string) ([]*entities.Message, error) {
	return s.messageRepo.GetReplies(ctx, conversationID, messageID)
}

// UpdateMessageSeenState flips one member's seen state on a message and keeps
// the member's unread set in step with it, so the two views of read state
// never diverge.
func (s *MessageService) UpdateMessageSeenState(ctx context.Context, messageID, userID string, seen bool) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	var seenAt *time.Time
	if seen {
		now := time.Now().UTC()
		seenAt = &now
	}

	if err := s.messageRepo.UpdateSeenAt(ctx, messageID, userID, seenAt); err != nil {
		return err
	}

	if err := s.relationshipService.MarkSeen(ctx, message.ConversationID, userID, []string{messageID}, seen); err != nil {
		return err
	}

	s.logger.Info("message seen state updated",
		zap.String("messageId", messageID),
		zap.String("userId", userID),
		zap.Bool("seen", seen))

	return nil
}

// MarkConversationSeen marks everything in one member's unread set as seen:
// each message gets the member's seen timestamp, then the unread set is
// cleared in one mutation. Safe to repeat; an already-empty set is a no-op.
func (s *MessageService) MarkConversationSeen(ctx context.Context, conversationID, userID string) ([]string, error) {
	relationship, err := s.relationshipService.GetRelationship(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if len(relationship.UnreadMessages) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	for _, messageID := range relationship.UnreadMessages {
		if err := s.messageRepo.UpdateSeenAt(ctx, messageID, userID, &now); err != nil {
			// The id may point at a message deleted since it went unread;
			// clearing the set below still removes the stale reference.
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
	}

	if err := s.relationshipService.MarkSeen(ctx, conversationID, userID, relationship.UnreadMessages, true); err != nil {
		return nil, err
	}

	s.logger.Info("conversation marked seen",
		zap.String("conversationId", conversationID),
		zap.String("userId", userID),
		zap.Int("messages", len(relationship.UnreadMessages)))

	return relationship.UnreadMessages, nil
}

// MarkConversationUnseen puts the member's most recent message back in the
// unread set and clears its seen timestamp, so the conversation surfaces as
// unread again. A conversation with no recent message is a no-op.
func (s *MessageService) MarkConversationUnseen(ctx context.Context, conversationID, userID string) ([]string, error) {
	relationship, err := s.relationshipService.GetRelationship(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if relationship.RecentMessageID == "" {
		return nil, nil
	}

	if err := s.messageRepo.UpdateSeenAt(ctx, relationship.RecentMessageID, userID, nil); err != nil {
		// The recent pointer may be stale; nothing to unsee then.
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	unseen := []string{relationship.RecentMessageID}
	if err := s.relationshipService.MarkSeen(ctx, conversationID, userID, unseen, false); err != nil {
		return nil, err
	}

	s.logger.Info("conversation marked unseen",
		zap.String("conversationId", conversationID),
		zap.String("userId", userID),
		zap.String("messageId", relationship.RecentMessageID))

	return unseen, nil
}

// UpdateMessageReactions applies a user's reaction additions and removals.
// Each reaction key holds the set of reacting users; removing the last user
// removes the key entirely.
func (s *MessageService) UpdateMessageReactions(ctx context.Context, messageID, userID string, changes []entities.ReactionChange) error {
	if len(changes) == 0 {
		return nil
	}
	for _, change := range changes {
		if change.Reaction == "" {
			return errors.NewValidationError("reaction is required")
		}
		if change.Action != entities.ReactionActionAdd && change.Action != entities.ReactionActionRemove {
			return errors.NewValidationError("reaction action must be add or remove")
		}
	}

	if err := s.messageRepo.ApplyReactionChanges(ctx, messageID, userID, changes); err != nil {
		return err
	}

	s.logger.Info("message reactions updated",
		zap.String("messageId", messageID),
		zap.String("userId", userID),
		zap.Int("changes", len(changes)))

	return nil
}
