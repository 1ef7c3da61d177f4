package handlers

import (
	"net/http"
	"time"

	"converse-backend/application/mediators"
	"converse-backend/domain/entities"
	"converse-backend/pkg/common"
	"converse-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MeetingHandler handles meeting endpoints. Meetings are conversations with
// a due date; membership and messaging work like groups.
type MeetingHandler struct {
	conversationMediator *mediators.ConversationMediator
	messageMediator      *mediators.MessageMediator
	logger               *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(
	conversationMediator *mediators.ConversationMediator,
	messageMediator *mediators.MessageMediator,
	logger *zap.Logger,
) *MeetingHandler {
	return &MeetingHandler{
		conversationMediator: conversationMediator,
		messageMediator:      messageMediator,
		logger:               logger,
	}
}

// CreateMeetingRequest is the request to create a meeting
type CreateMeetingRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	DueDate        string `json:"dueDate" validate:"required"`
	TeamID         string `json:"teamId" validate:"omitempty,max=100"`
	OrganizationID string `json:"organizationId" validate:"omitempty,max=100"`
}

// CreateMeeting handles POST /meetings
func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	var req CreateMeetingRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		common.RespondValidationError(w, map[string]interface{}{"duedate": "must be an RFC3339 timestamp"})
		return
	}
	if dueDate.Before(time.Now()) {
		common.RespondError(w, errors.NewValidationError("due date must be in the future"))
		return
	}

	meeting, err := h.conversationMediator.CreateMeeting(r.Context(), req.Name, userID, req.TeamID, req.OrganizationID, dueDate)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{"meeting": meeting})
}

// GetMeeting handles GET /meetings/{meetingID}
func (h *MeetingHandler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	meeting, err := h.conversationMediator.GetConversation(r.Context(), chi.URLParam(r, "meetingID"), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"meeting": meeting})
}

// AddUsers handles POST /meetings/{meetingID}/users
func (h *MeetingHandler) AddUsers(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	var req AddUsersRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	result, err := h.conversationMediator.AddUsersToConversation(r.Context(), chi.URLParam(r, "meetingID"), userID, req.inputs())
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// RemoveUser handles DELETE /meetings/{meetingID}/users/{userID}
func (h *MeetingHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	actorID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	err = h.conversationMediator.RemoveUserFromConversation(r.Context(), chi.URLParam(r, "meetingID"), actorID, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateMessage handles POST /meetings/{meetingID}/messages
func (h *MeetingHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	var req CreateMessageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	result, err := h.messageMediator.CreatePendingMessage(r.Context(), chi.URLParam(r, "meetingID"), userID, req.MimeType, req.ReplyTo)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, newPendingMessageResponse(result, entities.ConversationTypeMeeting))
}

// GetMessages handles GET /meetings/{meetingID}/messages
func (h *MeetingHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	pagination := common.ExtractPaginationParams(r)

	page, err := h.messageMediator.GetMessagesByConversation(r.Context(), chi.URLParam(r, "meetingID"), userID, pagination.Limit, pagination.ExclusiveStartKey)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, page)
}

// MarkMessagesSeen handles PATCH /users/{userID}/meetings/{meetingID}/messages
func (h *MeetingHandler) MarkMessagesSeen(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req BulkSeenRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	if !*req.Seen {
		unseenIDs, err := h.messageMediator.MarkConversationUnseen(r.Context(), chi.URLParam(r, "meetingID"), userID)
		if err != nil {
			common.RespondError(w, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, map[string]interface{}{"unseenMessageIds": unseenIDs})
		return
	}

	seenIDs, err := h.messageMediator.MarkConversationSeen(r.Context(), chi.URLParam(r, "meetingID"), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"seenMessageIds": seenIDs})
}
