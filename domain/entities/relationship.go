package entities

import (
	"fmt"
	"time"
)

// Role is a member's role within a conversation.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ConversationUserRelationship is the denormalized per-(conversation, user)
// membership and read-state row. Every member of a conversation has exactly
// one such row.
//
// UnreadMessages is a set of message ids, never a count; counts are derived
// at read time. When the set empties, the attribute is absent in storage
// rather than an empty set.
type ConversationUserRelationship struct {
	ConversationID   string           `json:"conversationId"`
	UserID           string           `json:"userId"`
	ConversationType ConversationType `json:"conversationType"`
	Role             Role             `json:"role"`
	Muted            bool             `json:"muted"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	UnreadMessages   []string         `json:"unreadMessages,omitempty"`
	RecentMessageID  string           `json:"recentMessageId,omitempty"`

	// DueDate is copied from the Meeting so meeting lists sort without a
	// join back to the conversation row.
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// NewRelationship creates the membership row for one user in a conversation.
func NewRelationship(conversation *Conversation, userID string, role Role) (*ConversationUserRelationship, error) {
	if conversation == nil {
		return nil, fmt.Errorf("conversation is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	return &ConversationUserRelationship{
		ConversationID:   conversation.ID,
		UserID:           userID,
		ConversationType: conversation.Type,
		Role:             role,
		UpdatedAt:        time.Now().UTC(),
		DueDate:          conversation.DueDate,
	}, nil
}

// HasUnread reports whether the member has any unread messages.
func (r *ConversationUserRelationship) HasUnread() bool {
	return len(r.UnreadMessages) > 0
}

// IsAdmin reports whether the member administers the conversation.
func (r *ConversationUserRelationship) IsAdmin() bool {
	return r.Role == RoleAdmin
}
