package handlers

import (
	"net/http"
	"time"

	"converse-backend/application/mediators"
	"converse-backend/domain/entities"
	"converse-backend/pkg/auth"
	"converse-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20 // 1MB

// currentUserID returns the authenticated caller's user id.
func currentUserID(r *http.Request) (string, error) {
	claims, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return "", errors.NewUnauthorizedError("")
	}
	return claims.UserID, nil
}

// pendingMessageResponse is the shape returned by message creation endpoints.
type pendingMessageResponse struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	From      string    `json:"from"`
	Type      string    `json:"type"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
	UploadURL string    `json:"uploadUrl"`
}

func newPendingMessageResponse(result *mediators.PendingMessageResult, conversationType entities.ConversationType) map[string]interface{} {
	pending := result.PendingMessage
	return map[string]interface{}{
		"pendingMessage": pendingMessageResponse{
			ID:        pending.ID,
			To:        pending.ConversationID,
			From:      pending.From,
			Type:      string(conversationType),
			MimeType:  pending.MimeType,
			CreatedAt: pending.CreatedAt,
			UploadURL: result.UploadURL,
		},
	}
}

// reactionChangeRequest is one reaction mutation on a message PATCH.
type reactionChangeRequest struct {
	Reaction string `json:"reaction" validate:"required,min=1,max=64"`
	Action   string `json:"action" validate:"required,oneof=add remove"`
}

func toReactionChanges(reqs []reactionChangeRequest) []entities.ReactionChange {
	changes := make([]entities.ReactionChange, 0, len(reqs))
	for _, req := range reqs {
		changes = append(changes, entities.ReactionChange{
			Reaction: req.Reaction,
			Action:   entities.ReactionAction(req.Action),
		})
	}
	return changes
}
