package entities

import (
	"fmt"
	"strings"
	"time"
)

// Message is a transcribed message within a conversation.
//
// SeenAt holds exactly one entry per conversation member: nil means unseen,
// non-nil is the time that member saw the message. The sender's entry is
// always non-nil from creation.
//
// Reactions maps reaction name to the set of user ids that added it. An
// emptied reaction is removed from the map entirely; no key ever holds an
// empty set.
type Message struct {
	ID             string                `json:"id"`
	ConversationID string                `json:"conversationId"`
	From           string                `json:"from"`
	CreatedAt      time.Time             `json:"createdAt"`
	MimeType       string                `json:"mimeType"`
	Transcript     string                `json:"transcript"`
	Title          string                `json:"title,omitempty"`
	ReplyTo        string                `json:"replyTo,omitempty"`
	ReplyCount     int                   `json:"replyCount"`
	SeenAt         map[string]*time.Time `json:"seenAt"`
	Reactions      map[string][]string   `json:"reactions,omitempty"`
}

// NewMessage builds a message with SeenAt seeded over the full member list:
// the sender seen now, everyone else unseen.
func NewMessage(id, conversationID, from, mimeType, transcript, replyTo string, memberIDs []string) (*Message, error) {
	if conversationID == "" || from == "" {
		return nil, fmt.Errorf("conversationID and from are required")
	}
	if id == "" {
		if replyTo != "" {
			id = NewReplyID()
		} else {
			id = NewMessageID()
		}
	}
	now := time.Now().UTC()
	seenAt := make(map[string]*time.Time, len(memberIDs))
	for _, memberID := range memberIDs {
		if memberID == from {
			ts := now
			seenAt[memberID] = &ts
			continue
		}
		seenAt[memberID] = nil
	}
	if _, ok := seenAt[from]; !ok {
		ts := now
		seenAt[from] = &ts
	}
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		From:           from,
		CreatedAt:      now,
		MimeType:       mimeType,
		Transcript:     transcript,
		ReplyTo:        replyTo,
		SeenAt:         seenAt,
		Reactions:      map[string][]string{},
	}, nil
}

// IsReply reports whether m is a threaded reply rather than a root message.
func (m *Message) IsReply() bool { return m.ReplyTo != "" }

// SeenBy reports whether userID has seen the message.
func (m *Message) SeenBy(userID string) bool {
	ts, ok := m.SeenAt[userID]
	return ok && ts != nil
}

// MarkSeen sets the seen timestamp for userID; seen=false clears it back to
// unseen. Unknown members are added rather than dropped so late joins still
// get a SeenAt entry.
func (m *Message) MarkSeen(userID string, seen bool) {
	if m.SeenAt == nil {
		m.SeenAt = map[string]*time.Time{}
	}
	if !seen {
		m.SeenAt[userID] = nil
		return
	}
	now := time.Now().UTC()
	m.SeenAt[userID] = &now
}

// ReactionAction is the verb of a single reaction change.
type ReactionAction string

const (
	ReactionActionAdd    ReactionAction = "add"
	ReactionActionRemove ReactionAction = "remove"
)

// ReactionChange is one add/remove of a named reaction by a user.
type ReactionChange struct {
	Reaction string
	Action   ReactionAction
}

// ApplyReaction applies a single reaction change for userID. Removing the
// last member of a reaction deletes the reaction key itself.
func (m *Message) ApplyReaction(userID string, change ReactionChange) {
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	members := m.Reactions[change.Reaction]
	switch change.Action {
	case ReactionActionAdd:
		for _, id := range members {
			if id == userID {
				return
			}
		}
		m.Reactions[change.Reaction] = append(members, userID)
	case ReactionActionRemove:
		kept := members[:0]
		for _, id := range members {
			if id != userID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(m.Reactions, change.Reaction)
			return
		}
		m.Reactions[change.Reaction] = kept
	}
}

// PendingMessage is the placeholder written when a client asks to send a
// message, before the upload and its transcription complete. It exists iff
// the corresponding Message does not.
type PendingMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	From           string    `json:"from"`
	MimeType       string    `json:"mimeType"`
	ReplyTo        string    `json:"replyTo,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewPendingMessage creates the placeholder for an upload about to start.
func NewPendingMessage(conversationID, from, mimeType, replyTo string) (*PendingMessage, error) {
	if conversationID == "" || from == "" {
		return nil, fmt.Errorf("conversationID and from are required")
	}
	if !strings.Contains(mimeType, "/") {
		return nil, fmt.Errorf("invalid mimeType %q", mimeType)
	}
	return &PendingMessage{
		ID:             NewPendingMessageID(),
		ConversationID: conversationID,
		From:           from,
		MimeType:       mimeType,
		ReplyTo:        replyTo,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
