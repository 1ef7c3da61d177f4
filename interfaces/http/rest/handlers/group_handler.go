package handlers

import (
	"net/http"

	"converse-backend/application/mediators"
	"converse-backend/domain/entities"
	"converse-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GroupHandler handles group endpoints: creation, membership and messages.
type GroupHandler struct {
	conversationMediator *mediators.ConversationMediator
	messageMediator      *mediators.MessageMediator
	logger               *zap.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(
	conversationMediator *mediators.ConversationMediator,
	messageMediator *mediators.MessageMediator,
	logger *zap.Logger,
) *GroupHandler {
	return &GroupHandler{
		conversationMediator: conversationMediator,
		messageMediator:      messageMediator,
		logger:               logger,
	}
}

// CreateGroupRequest is the request to create a group
type CreateGroupRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=100"`
	TeamID         string `json:"teamId" validate:"omitempty,max=100"`
	OrganizationID string `json:"organizationId" validate:"omitempty,max=100"`
}

// CreateGroup handles POST /groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	var req CreateGroupRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	group, err := h.conversationMediator.CreateGroup(r.Context(), req.Name, userID, req.TeamID, req.OrganizationID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{"group": group})
}

// GetGroup handles GET /groups/{groupID}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	group, err := h.conversationMediator.GetConversation(r.Context(), chi.URLParam(r, "groupID"), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"group": group})
}

// AddUserEntry is one user to add: an identifier plus an optional role,
// defaulting to a regular member.
type AddUserEntry struct {
	Identifier string `json:"identifier" validate:"required,min=1,max=254"`
	Role       string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
}

// AddUsersRequest is the request to add users by identifier
type AddUsersRequest struct {
	Users []AddUserEntry `json:"users" validate:"required,min=1,max=50,dive"`
}

func (r AddUsersRequest) inputs() []mediators.AddUserInput {
	inputs := make([]mediators.AddUserInput, 0, len(r.Users))
	for _, entry := range r.Users {
		inputs = append(inputs, mediators.AddUserInput{
			Identifier: entry.Identifier,
			Role:       entities.Role(entry.Role),
		})
	}
	return inputs
}

// AddUsers handles POST /groups/{groupID}/users. The response always carries
// both partitions; unresolvable identifiers do not fail the request.
func (h *GroupHandler) AddUsers(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.conversationMediator.AddUsersToConversation(r.Context(), chi.URLParam(r, "groupID"), userID, req.inputs())
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// RemoveUser handles DELETE /groups/{groupID}/users/{userID}
func (h *GroupHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	actorID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	err = h.conversationMediator.RemoveUserFromConversation(r.Context(), chi.URLParam(r, "groupID"), actorID, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateMessage handles POST /groups/{groupID}/messages
func (h *GroupHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.messageMediator.CreatePendingMessage(r.Context(), chi.URLParam(r, "groupID"), userID, req.MimeType, req.ReplyTo)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, newPendingMessageResponse(result, entities.ConversationTypeGroup))
}

// GetMessages handles GET /groups/{groupID}/messages
func (h *GroupHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		common.RespondError(w, err)
		return
	}
	pagination := common.ExtractPaginationParams(r)

	page, err := h.messageMediator.GetMessagesByConversation(r.Context(), chi.URLParam(r, "groupID"), userID, pagination.Limit, pagination.ExclusiveStartKey)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, page)
}

// MarkMessagesSeen handles PATCH /users/{userID}/groups/{groupID}/messages
func (h *GroupHandler) MarkMessagesSeen(w http.ResponseWriter, r *http.Request) {
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
		unseenIDs, err := h.messageMediator.MarkConversationUnseen(r.Context(), chi.URLParam(r, "groupID"), userID)
		if err != nil {
			common.RespondError(w, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, map[string]interface{}{"unseenMessageIds": unseenIDs})
		return
	}

	seenIDs, err := h.messageMediator.MarkConversationSeen(r.Context(), chi.URLParam(r, "groupID"), userID)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"seenMessageIds": seenIDs})
}
