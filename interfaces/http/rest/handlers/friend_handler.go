package handlers

import (
	"net/http"

	"converse-backend/application/mediators"
	"converse-backend/domain/entities"
	"converse-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FriendHandler handles the friend relationship and friend messaging
// endpoints nested under /users/{userID}/friends.
type FriendHandler struct {
	conversationMediator *mediators.ConversationMediator
	messageMediator      *mediators.MessageMediator
	logger               *zap.Logger
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(
	conversationMediator *mediators.ConversationMediator,
	messageMediator *mediators.MessageMediator,
	logger *zap.Logger,
) *FriendHandler {
	return &FriendHandler{
		conversationMediator: conversationMediator,
		messageMediator:      messageMediator,
		logger:               logger,
	}
}

// AddFriendRequest is the request to add a friend
type AddFriendRequest struct {
	Identifier string `json:"identifier" validate:"required,min=1,max=254"`
}

// AddFriend handles POST /users/{userID}/friends
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req AddFriendRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	conversation, friend, err := h.conversationMediator.AddFriend(r.Context(), userID, req.Identifier)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"conversation": conversation,
		"friend":       friend,
	})
}

// RemoveFriend handles DELETE /users/{userID}/friends/{friendID}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	friendID := chi.URLParam(r, "friendID")

	if err := h.conversationMediator.RemoveFriendByUser(r.Context(), userID, friendID); err != nil {
		common.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateMessageRequest is the request to create a pending message
type CreateMessageRequest struct {
	MimeType string `json:"mimeType" validate:"required,min=1,max=100"`
	ReplyTo  string `json:"replyTo" validate:"omitempty,max=100"`
}

// CreateMessage handles POST /users/{userID}/friends/{friendID}/messages
func (h *FriendHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	friendID := chi.URLParam(r, "friendID")

	var req CreateMessageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	conversation, err := h.conversationMediator.GetFriendConversation(r.Context(), userID, friendID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	result, err := h.messageMediator.CreatePendingMessage(r.Context(), conversation.ID, userID, req.MimeType, req.ReplyTo)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, newPendingMessageResponse(result, entities.ConversationTypeFriend))
}

// GetMessages handles GET /users/{userID}/friends/{friendID}/messages
func (h *FriendHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	friendID := chi.URLParam(r, "friendID")
	pagination := common.ExtractPaginationParams(r)

	conversation, err := h.conversationMediator.GetFriendConversation(r.Context(), userID, friendID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	page, err := h.messageMediator.GetMessagesByConversation(r.Context(), conversation.ID, userID, pagination.Limit, pagination.ExclusiveStartKey)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, page)
}

// BulkSeenRequest is the request to bulk-mark a conversation seen or
// unseen. seen=false flags the conversation unread again.
type BulkSeenRequest struct {
	Seen *bool `json:"seen" validate:"required"`
}

// MarkMessagesSeen handles PATCH /users/{userID}/friends/{friendID}/messages
func (h *FriendHandler) MarkMessagesSeen(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	friendID := chi.URLParam(r, "friendID")

	var req BulkSeenRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	conversation, err := h.conversationMediator.GetFriendConversation(r.Context(), userID, friendID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	if !*req.Seen {
		unseenIDs, err := h.messageMediator.MarkConversationUnseen(r.Context(), conversation.ID, userID)
		if err != nil {
			common.RespondError(w, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, map[string]interface{}{"unseenMessageIds": unseenIDs})
		return
	}

	seenIDs, err := h.messageMediator.MarkConversationSeen(r.Context(), conversation.ID, userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"seenMessageIds": seenIDs})
}
