package ports

import (
	"context"
	"time"

	"converse-backend/domain/entities"
)

// ConversationRepository persists conversation rows.
// This is a port in hexagonal architecture - the domain doesn't know about the
// implementation.
type ConversationRepository interface {
	// Create writes the conversation, failing with a conflict if it exists
	Create(ctx context.Context, conversation *entities.Conversation) error

	// GetByID retrieves a conversation by id
	GetByID(ctx context.Context, id string) (*entities.Conversation, error)

	// GetByIDs batch-retrieves conversations, skipping absent ids
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Conversation, error)

	// Delete removes a conversation row
	Delete(ctx context.Context, id string) error

	// CreateWithMembers transactionally writes the conversation and its
	// initial relationship rows so a failure leaves no orphaned root
	CreateWithMembers(ctx context.Context, conversation *entities.Conversation, relationships []*entities.ConversationUserRelationship) error

	// DeleteWithMembers transactionally removes the conversation and the
	// given relationship rows (friend teardown)
	DeleteWithMembers(ctx context.Context, conversationID string, userIDs []string) error
}

// RelationshipQuery narrows GetByUserID to one access pattern.
type RelationshipQuery struct {
	UserID string

	// Type filters by conversation type via GSI2; empty means all types via
	// GSI1, most recent first
	Type entities.ConversationType

	// ByDueDate orders meetings by due date via GSI3 instead of recency
	ByDueDate bool

	// Unread keeps only rows with a non-empty unread set. Applied as a
	// server-side filter, so a page may come back short of Limit.
	Unread bool

	Limit             int
	ExclusiveStartKey string
}

// RelationshipPage is one page of relationship rows plus the resume cursor.
type RelationshipPage struct {
	Items            []*entities.ConversationUserRelationship
	LastEvaluatedKey string
}

// RelationshipRepository persists the per-(conversation, user) membership and
// read-state rows.
type RelationshipRepository interface {
	// Create writes the relationship, failing with a conflict if it exists
	Create(ctx context.Context, relationship *entities.ConversationUserRelationship) error

	// Get retrieves one relationship row
	Get(ctx context.Context, conversationID, userID string) (*entities.ConversationUserRelationship, error)

	// GetByConversationID returns every member's row for a conversation
	GetByConversationID(ctx context.Context, conversationID string) ([]*entities.ConversationUserRelationship, error)

	// GetByUserID pages a user's relationship rows per the query's index
	GetByUserID(ctx context.Context, query RelationshipQuery) (*RelationshipPage, error)

	// Delete removes one relationship row
	Delete(ctx context.Context, conversationID, userID string) error

	// AddUnreadMessage adds messageID to the member's unread set and bumps
	// the recency sort keys
	AddUnreadMessage(ctx context.Context, conversationID, userID, messageID string) error

	// RemoveUnreadMessages deletes ids from the unread set; the attribute is
	// absent, not empty, once the last id is removed
	RemoveUnreadMessages(ctx context.Context, conversationID, userID string, messageIDs []string) error

	// AddUnreadMessages re-adds ids to the unread set (mark unseen)
	AddUnreadMessages(ctx context.Context, conversationID, userID string, messageIDs []string) error

	// Touch bumps UpdatedAt and the GSI sort keys without unread changes,
	// optionally recording the most recent message id
	Touch(ctx context.Context, conversationID, userID, recentMessageID string, at time.Time) error
}

// MessageRepository persists message and pending-message rows.
type MessageRepository interface {
	// GetByID retrieves a message by its id
	GetByID(ctx context.Context, id string) (*entities.Message, error)

	// GetByConversationID lists root messages (replies excluded) in creation
	// order, newest first
	GetByConversationID(ctx context.Context, conversationID string, limit int, exclusiveStartKey string) ([]*entities.Message, string, error)

	// GetReplies lists the replies to a root message
	GetReplies(ctx context.Context, conversationID, messageID string) ([]*entities.Message, error)

	// UpdateSeenAt sets or clears one member's seen timestamp
	UpdateSeenAt(ctx context.Context, messageID, userID string, seenAt *time.Time) error

	// ApplyReactionChanges applies add/remove set mutations for one user;
	// emptied reaction sets leave no attribute behind
	ApplyReactionChanges(ctx context.Context, messageID, userID string, changes []entities.ReactionChange) error

	// CreatePendingMessage writes the upload placeholder
	CreatePendingMessage(ctx context.Context, pending *entities.PendingMessage) error

	// GetPendingMessage retrieves a pending message by id
	GetPendingMessage(ctx context.Context, id string) (*entities.PendingMessage, error)

	// UpdatePendingMessageMimeType rewrites the placeholder's mime type after
	// transcoding, failing with not-found if already converted
	UpdatePendingMessageMimeType(ctx context.Context, id, mimeType string) error

	// ConvertPendingToMessage transactionally creates the message and deletes
	// the pending row; fails with not-found when the pending row is gone and
	// with conflict when the message already exists
	ConvertPendingToMessage(ctx context.Context, pendingID string, message *entities.Message) error

	// CreateReplyWithCountIncrement transactionally writes the reply, deletes
	// the pending row and increments the parent's ReplyCount
	CreateReplyWithCountIncrement(ctx context.Context, pendingID string, reply *entities.Message) error
}

// UserRepository persists user rows and their unique-property side rows.
type UserRepository interface {
	// Create transactionally writes the user and every claimed unique
	// property; any collision fails the whole write
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by id
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByIDs batch-retrieves users, skipping absent ids
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// GetByUniqueProperty resolves a (kind, value) pair to its user
	GetByUniqueProperty(ctx context.Context, kind entities.UniquePropertyKind, value string) (*entities.User, error)
}

// OrganizationRepository persists organization rows.
type OrganizationRepository interface {
	Create(ctx context.Context, organization *entities.Organization) error
	GetByID(ctx context.Context, id string) (*entities.Organization, error)

	// UpdateBillingPlan rewrites the plan attribute in place
	UpdateBillingPlan(ctx context.Context, id string, plan entities.BillingPlan) error
}
