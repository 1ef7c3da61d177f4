package entities

import (
	"fmt"
	"time"
)

// ConversationType discriminates the three conversation variants sharing one
// table. Branching on it must be exhaustive; never sniff the id prefix.
type ConversationType string

const (
	ConversationTypeFriend  ConversationType = "FRIEND"
	ConversationTypeGroup   ConversationType = "GROUP"
	ConversationTypeMeeting ConversationType = "MEETING"
)

// Valid reports whether t is one of the known conversation types.
func (t ConversationType) Valid() bool {
	switch t {
	case ConversationTypeFriend, ConversationTypeGroup, ConversationTypeMeeting:
		return true
	}
	return false
}

// Conversation is a Friend (1:1), Group, or Meeting chat thread. Variant
// fields are populated according to Type: Name/ImageMimeType for groups and
// meetings, DueDate/Outcomes for meetings only.
type Conversation struct {
	ID             string           `json:"id"`
	Type           ConversationType `json:"type"`
	CreatedBy      string           `json:"createdBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	TeamID         string           `json:"teamId,omitempty"`
	OrganizationID string           `json:"organizationId,omitempty"`

	// Group and Meeting
	Name          string `json:"name,omitempty"`
	ImageMimeType string `json:"imageMimeType,omitempty"`

	// Meeting only
	DueDate  *time.Time `json:"dueDate,omitempty"`
	Outcomes []string   `json:"outcomes,omitempty"`
}

// NewGroupConversation creates a group conversation aggregate.
func NewGroupConversation(name, createdBy, teamID, organizationID string) (*Conversation, error) {
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if createdBy == "" {
		return nil, fmt.Errorf("createdBy is required")
	}
	return &Conversation{
		ID:             NewGroupID(),
		Type:           ConversationTypeGroup,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
		TeamID:         teamID,
		OrganizationID: organizationID,
		Name:           name,
	}, nil
}

// NewMeetingConversation creates a meeting conversation aggregate.
func NewMeetingConversation(name, createdBy, teamID, organizationID string, dueDate time.Time) (*Conversation, error) {
	if name == "" {
		return nil, fmt.Errorf("meeting name is required")
	}
	if createdBy == "" {
		return nil, fmt.Errorf("createdBy is required")
	}
	if dueDate.IsZero() {
		return nil, fmt.Errorf("meeting dueDate is required")
	}
	due := dueDate.UTC()
	return &Conversation{
		ID:             NewMeetingID(),
		Type:           ConversationTypeMeeting,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
		TeamID:         teamID,
		OrganizationID: organizationID,
		Name:           name,
		DueDate:        &due,
	}, nil
}

// NewFriendConversation creates the 1:1 conversation backing a friendship.
// Friend conversations have no name of their own; callers render the other
// member's name.
func NewFriendConversation(createdBy string) (*Conversation, error) {
	if createdBy == "" {
		return nil, fmt.Errorf("createdBy is required")
	}
	return &Conversation{
		ID:        NewFriendConversationID(),
		Type:      ConversationTypeFriend,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsFriend reports whether c is a 1:1 friend conversation.
func (c *Conversation) IsFriend() bool { return c.Type == ConversationTypeFriend }
