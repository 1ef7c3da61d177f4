package handlers

import (
	"net/http"

	"converse-backend/application/mediators"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	"converse-backend/pkg/common"
	"converse-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler handles user account endpoints and the user's conversation
// listing.
type UserHandler struct {
	userService          *services.UserService
	conversationMediator *mediators.ConversationMediator
	logger               *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService *services.UserService,
	conversationMediator *mediators.ConversationMediator,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userService:          userService,
		conversationMediator: conversationMediator,
		logger:               logger,
	}
}

// CreateUserRequest is the request to create a user
type CreateUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondValidationError(w, map[string]interface{}{"body": "malformed JSON"})
		return
	}
	if fields := common.ValidateStruct(req); fields != nil {
		common.RespondValidationError(w, fields)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Email, req.Username, req.Phone, req.Name)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// GetUser handles GET /users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// GetConversations handles
// GET /users/{userID}/conversations?type=&unread=&searchTerm=&limit=&exclusiveStartKey=
func (h *UserHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	query := r.URL.Query()
	pagination := common.ExtractPaginationParams(r)

	filter := mediators.ConversationFilter{
		Unread:            query.Get("unread") == "true",
		SearchTerm:        query.Get("searchTerm"),
		ByDueDate:         query.Get("byDueDate") == "true",
		Limit:             pagination.Limit,
		ExclusiveStartKey: pagination.ExclusiveStartKey,
	}
	if t := query.Get("type"); t != "" {
		convType := entities.ConversationType(t)
		if !convType.Valid() {
			common.RespondError(w, errors.NewValidationError("unknown conversation type"))
			return
		}
		filter.Type = convType
	}

	page, err := h.conversationMediator.GetConversationsByUser(r.Context(), userID, filter)
	if err != nil {
		common.RespondError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, page)
}
