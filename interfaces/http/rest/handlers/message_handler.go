package handlers

import (
	"net/http"

	"converse-backend/application/mediators"
	"converse-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MessageHandler handles direct message endpoints: lookup, replies and the
// per-message seen/reaction PATCH.
type MessageHandler struct {
	messageMediator *mediators.MessageMediator
	logger          *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageMediator *mediators.MessageMediator, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageMediator: messageMediator,
		logger:          logger,
	}
}

// GetMessage handles GET /messages/{messageID}
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	view, err := h.messageMediator.GetMessage(r.Context(), chi.URLParam(r, "messageID"), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, view)
}

// GetReplies handles GET /messages/{messageID}/replies
func (h *MessageHandler) GetReplies(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	messageID := chi.URLParam(r, "messageID")

	root, err := h.messageMediator.GetMessage(r.Context(), messageID, userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	replies, err := h.messageMediator.GetRepliesByMessage(r.Context(), root.Message.ConversationID, messageID, userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"replies": replies})
}

// UpdateMessageRequest is the PATCH body: seen state, reaction changes, or
// both.
type UpdateMessageRequest struct {
	Seen      *bool                   `json:"seen"`
	Reactions []reactionChangeRequest `json:"reactions" validate:"omitempty,max=20,dive"`
}

// UpdateMessage handles PATCH /users/{userID}/messages/{messageID}
func (h *MessageHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	messageID := chi.URLParam(r, "messageID")

	var req UpdateMessageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}
	if req.Seen == nil && len(req.Reactions) == 0 {
		common.RespondValidationError(w, map[string]interface{}{"body": "seen or reactions is required"})
		return
	}

	err := h.messageMediator.UpdateMessage(r.Context(), messageID, userID, mediators.MessageUpdate{
		Seen:      req.Seen,
		Reactions: toReactionChanges(req.Reactions),
	})
	if err != nil {
		common.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
