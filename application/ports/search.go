package ports

import "context"

// ConversationSearchIndex is the black-box free-text search over a user's
// conversations: member name/email/phone/username or conversation name. It
// returns matching conversation ids only; hydration is the caller's job.
type ConversationSearchIndex interface {
	SearchConversationIDs(ctx context.Context, userID, searchTerm string, limit int) ([]string, error)
}
