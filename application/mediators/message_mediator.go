package mediators

import (
	"context"

	"converse-backend/application/ports"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"go.uber.org/zap"
)

// PendingMessageResult pairs the new placeholder with the presigned URL the
// client uploads the media to.
type PendingMessageResult struct {
	PendingMessage *entities.PendingMessage `json:"pendingMessage"`
	UploadURL      string                   `json:"uploadUrl"`
}

// MessageView joins a message with its sender's summary and the presigned
// URL for its media.
type MessageView struct {
	Message  *entities.Message `json:"message"`
	From     ports.UserSummary `json:"from"`
	FetchURL string            `json:"fetchUrl,omitempty"`
}

// MessagePage is one page of message views plus the resume cursor.
type MessagePage struct {
	Items            []*MessageView `json:"items"`
	LastEvaluatedKey string         `json:"lastEvaluatedKey,omitempty"`
}

// MessageUpdate carries the seen and/or reaction changes of one PATCH.
type MessageUpdate struct {
	Seen      *bool
	Reactions []entities.ReactionChange
}

// MessageMediator coordinates message reads and writes that need membership
// checks, sender hydration or media URLs on top of the message service.
type MessageMediator struct {
	messageService      *services.MessageService
	relationshipService *services.RelationshipService
	userService         *services.UserService
	fileStorage         ports.MessageFileStorage
	logger              *zap.Logger
}

// NewMessageMediator creates a new message mediator
func NewMessageMediator(
	messageService *services.MessageService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	fileStorage ports.MessageFileStorage,
	logger *zap.Logger,
) *MessageMediator {
	return &MessageMediator{
		messageService:      messageService,
		relationshipService: relationshipService,
		userService:         userService,
		fileStorage:         fileStorage,
		logger:              logger,
	}
}

// CreatePendingMessage writes the upload placeholder for a member's new
// message and returns it with the presigned upload URL.
func (m *MessageMediator) CreatePendingMessage(ctx context.Context, conversationID, userID, mimeType, replyTo string) (*PendingMessageResult, error) {
	if err := m.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	pending, err := m.messageService.CreatePendingMessage(ctx, conversationID, userID, mimeType, replyTo)
	if err != nil {
		return nil, err
	}

	uploadURL, err := m.fileStorage.UploadURL(ctx, pending.ID, mimeType)
	if err != nil {
		return nil, err
	}

	return &PendingMessageResult{PendingMessage: pending, UploadURL: uploadURL}, nil
}

// GetMessage returns one message joined with its sender, for a member.
func (m *MessageMediator) GetMessage(ctx context.Context, messageID, userID string) (*MessageView, error) {
	message, err := m.messageService.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := m.requireMember(ctx, message.ConversationID, userID); err != nil {
		return nil, err
	}

	views, err := m.join(ctx, []*entities.Message{message})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// GetMessagesByConversation pages a conversation's root messages newest
// first, each joined with its sender summary and media URL.
func (m *MessageMediator) GetMessagesByConversation(ctx context.Context, conversationID, userID string, limit int, exclusiveStartKey string) (*MessagePage, error) {
	if err := m.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages, lastKey, err := m.messageService.GetMessagesByConversation(ctx, conversationID, limit, exclusiveStartKey)
	if err != nil {
		return nil, err
	}

	views, err := m.join(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &MessagePage{Items: views, LastEvaluatedKey: lastKey}, nil
}

// GetRepliesByMessage returns the replies to a root message, joined.
func (m *MessageMediator) GetRepliesByMessage(ctx context.Context, conversationID, messageID, userID string) ([]*MessageView, error) {
	if err := m.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	replies, err := m.messageService.GetRepliesByMessage(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}

	return m.join(ctx, replies)
}

// UpdateMessage applies one PATCH to a message on the member's behalf: seen
// state, reaction changes, or both.
func (m *MessageMediator) UpdateMessage(ctx context.Context, messageID, userID string, update MessageUpdate) error {
	message, err := m.messageService.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := m.requireMember(ctx, message.ConversationID, userID); err != nil {
		return err
	}

	if update.Seen != nil {
		if err := m.messageService.UpdateMessageSeenState(ctx, messageID, userID, *update.Seen); err != nil {
			return err
		}
	}
	if len(update.Reactions) > 0 {
		if err := m.messageService.UpdateMessageReactions(ctx, messageID, userID, update.Reactions); err != nil {
			return err
		}
	}

	return nil
}

// MarkConversationSeen clears the member's whole unread set for a
// conversation and returns the message ids that were marked.
func (m *MessageMediator) MarkConversationSeen(ctx context.Context, conversationID, userID string) ([]string, error) {
	return m.messageService.MarkConversationSeen(ctx, conversationID, userID)
}

// MarkConversationUnseen flags the conversation unread again by putting its
// most recent message back in the member's unread set.
func (m *MessageMediator) MarkConversationUnseen(ctx context.Context, conversationID, userID string) ([]string, error) {
	return m.messageService.MarkConversationUnseen(ctx, conversationID, userID)
}

// join hydrates sender summaries and media URLs onto messages, preserving
// order. Senders are batch-fetched once per page.
func (m *MessageMediator) join(ctx context.Context, messages []*entities.Message) ([]*MessageView, error) {
	if len(messages) == 0 {
		return []*MessageView{}, nil
	}

	senderIDs := make([]string, 0, len(messages))
	seen := make(map[string]bool, len(messages))
	for _, message := range messages {
		if !seen[message.From] {
			seen[message.From] = true
			senderIDs = append(senderIDs, message.From)
		}
	}

	senders, err := m.userService.GetUsers(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.User, len(senders))
	for _, sender := range senders {
		byID[sender.ID] = sender
	}

	views := make([]*MessageView, 0, len(messages))
	for _, message := range messages {
		view := &MessageView{Message: message}

		if sender, ok := byID[message.From]; ok {
			view.From = userSummary(sender)
		} else {
			view.From = ports.UserSummary{ID: message.From}
		}

		fetchURL, err := m.fileStorage.FetchURL(ctx, message.ID)
		if err != nil {
			m.logger.Warn("failed to presign message media URL",
				zap.String("messageId", message.ID),
				zap.Error(err))
		} else {
			view.FetchURL = fetchURL
		}

		views = append(views, view)
	}

	return views, nil
}

func (m *MessageMediator) requireMember(ctx context.Context, conversationID, userID string) error {
	isMember, err := m.relationshipService.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.NewForbiddenError("not a member of this conversation")
	}
	return nil
}
