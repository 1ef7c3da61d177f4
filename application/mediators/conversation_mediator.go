package mediators

import (
	"context"
	"time"

	"converse-backend/application/ports"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"go.uber.org/zap"
)

// AddUserInput is one identifier to add, with the role the new member gets.
// An empty Role means a regular member.
type AddUserInput struct {
	Identifier string
	Role       entities.Role
}

// AddedMember is one successfully resolved and added input identifier.
type AddedMember struct {
	Identifier string            `json:"identifier"`
	User       ports.UserSummary `json:"user"`
}

// AddMemberFailure is one input identifier that could not be added, with the
// reason it failed.
type AddMemberFailure struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// AddUsersResult partitions the input identifiers: every identifier lands in
// exactly one of the two lists.
type AddUsersResult struct {
	Successes []AddedMember      `json:"successes"`
	Failures  []AddMemberFailure `json:"failures"`
}

// ConversationFilter narrows GetConversationsByUser to one listing mode.
// Type, Unread and SearchTerm are mutually exclusive; none means all
// conversations, most recent first.
type ConversationFilter struct {
	Type       entities.ConversationType
	ByDueDate  bool
	Unread     bool
	SearchTerm string

	Limit             int
	ExclusiveStartKey string
}

// ConversationView joins one conversation with the requesting user's read
// state. RecentMessage is populated only on unread listings.
type ConversationView struct {
	Conversation     *entities.Conversation                 `json:"conversation"`
	Relationship     *entities.ConversationUserRelationship `json:"relationship"`
	UnreadMessageIDs []string                               `json:"unreadMessageIds"`
	RecentMessage    *entities.Message                      `json:"recentMessage,omitempty"`
}

// ConversationPage is one page of views plus the resume cursor.
type ConversationPage struct {
	Items            []*ConversationView `json:"items"`
	LastEvaluatedKey string              `json:"lastEvaluatedKey,omitempty"`
}

// ConversationMediator coordinates conversation membership changes and the
// joined listings that need users, conversations and read state together.
type ConversationMediator struct {
	conversationService *services.ConversationService
	relationshipService *services.RelationshipService
	userService         *services.UserService
	messageService      *services.MessageService
	searchIndex         ports.ConversationSearchIndex
	logger              *zap.Logger
}

// NewConversationMediator creates a new conversation mediator
func NewConversationMediator(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	messageService *services.MessageService,
	searchIndex ports.ConversationSearchIndex,
	logger *zap.Logger,
) *ConversationMediator {
	return &ConversationMediator{
		conversationService: conversationService,
		relationshipService: relationshipService,
		userService:         userService,
		messageService:      messageService,
		searchIndex:         searchIndex,
		logger:              logger,
	}
}

// CreateGroup creates a group with the creator as admin. Fan-out to the
// other members' clients happens downstream off the table stream.
func (m *ConversationMediator) CreateGroup(ctx context.Context, name, createdBy, teamID, organizationID string) (*entities.Conversation, error) {
	return m.conversationService.CreateGroup(ctx, name, createdBy, teamID, organizationID)
}

// CreateMeeting creates a meeting with the creator as admin.
func (m *ConversationMediator) CreateMeeting(ctx context.Context, name, createdBy, teamID, organizationID string, dueDate time.Time) (*entities.Conversation, error) {
	return m.conversationService.CreateMeeting(ctx, name, createdBy, teamID, organizationID, dueDate)
}

// GetConversation returns one conversation the user is a member of.
func (m *ConversationMediator) GetConversation(ctx context.Context, conversationID, userID string) (*entities.Conversation, error) {
	if err := m.requireMember(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return m.conversationService.GetConversation(ctx, conversationID)
}

// AddUsersToConversation resolves each identifier (user id, email, username
// or phone) and adds the user to the conversation with the requested role.
// Failures do not abort the batch: the result covers every input identifier
// exactly once, split into successes and failures, and the call itself only
// errors when the conversation or the caller's own access cannot be
// established.
func (m *ConversationMediator) AddUsersToConversation(ctx context.Context, conversationID, actorID string, users []AddUserInput) (*AddUsersResult, error) {
	conversation, err := m.conversationService.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation.IsFriend() {
		return nil, errors.NewValidationError("cannot add users to a friend conversation")
	}

	isAdmin, err := m.relationshipService.IsAdmin(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, errors.NewForbiddenError("only admins can add users")
	}

	result := &AddUsersResult{
		Successes: []AddedMember{},
		Failures:  []AddMemberFailure{},
	}

	for _, input := range users {
		role := input.Role
		if role == "" {
			role = entities.RoleUser
		}
		if !role.Valid() {
			result.Failures = append(result.Failures, AddMemberFailure{Identifier: input.Identifier, Reason: "invalid role"})
			continue
		}

		user, err := m.userService.GetUserByIdentifier(ctx, input.Identifier)
		if err != nil {
			reason := "user not found"
			if !errors.IsNotFound(err) {
				reason = "failed to resolve user"
				m.logger.Error("failed to resolve identifier",
					zap.String("conversationId", conversationID),
					zap.String("identifier", input.Identifier),
					zap.Error(err))
			}
			result.Failures = append(result.Failures, AddMemberFailure{Identifier: input.Identifier, Reason: reason})
			continue
		}

		if _, err := m.relationshipService.CreateRelationship(ctx, conversation, user.ID, role); err != nil {
			reason := "failed to add user"
			if errors.IsConflict(err) {
				reason = "already a member"
			} else {
				m.logger.Error("failed to add user to conversation",
					zap.String("conversationId", conversationID),
					zap.String("userId", user.ID),
					zap.Error(err))
			}
			result.Failures = append(result.Failures, AddMemberFailure{Identifier: input.Identifier, Reason: reason})
			continue
		}

		result.Successes = append(result.Successes, AddedMember{Identifier: input.Identifier, User: userSummary(user)})
	}

	m.logger.Info("users added to conversation",
		zap.String("conversationId", conversationID),
		zap.Int("successes", len(result.Successes)),
		zap.Int("failures", len(result.Failures)))

	return result, nil
}

// RemoveUserFromConversation removes a member. Admins can remove anyone;
// everyone can remove themselves.
func (m *ConversationMediator) RemoveUserFromConversation(ctx context.Context, conversationID, actorID, userID string) error {
	conversation, err := m.conversationService.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conversation.IsFriend() {
		return errors.NewValidationError("cannot remove users from a friend conversation")
	}

	if actorID != userID {
		isAdmin, err := m.relationshipService.IsAdmin(ctx, conversationID, actorID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return errors.NewForbiddenError("only admins can remove other users")
		}
	}

	return m.relationshipService.DeleteRelationship(ctx, conversationID, userID)
}

// AddFriend resolves the identifier and creates the two-member friend
// conversation. An existing conversation with the same pair is a conflict.
func (m *ConversationMediator) AddFriend(ctx context.Context, userID, friendIdentifier string) (*entities.Conversation, *entities.User, error) {
	friend, err := m.userService.GetUserByIdentifier(ctx, friendIdentifier)
	if err != nil {
		return nil, nil, err
	}

	if _, err := m.GetFriendConversation(ctx, userID, friend.ID); err == nil {
		return nil, nil, errors.NewConflictError("already friends")
	} else if !errors.IsNotFound(err) {
		return nil, nil, err
	}

	conversation, err := m.conversationService.CreateFriendConversation(ctx, userID, friend.ID)
	if err != nil {
		return nil, nil, err
	}

	return conversation, friend, nil
}

// GetFriendConversation resolves the friend conversation shared by two
// users by walking the first user's friend relationships.
func (m *ConversationMediator) GetFriendConversation(ctx context.Context, userID, friendID string) (*entities.Conversation, error) {
	cursor := ""
	for {
		page, err := m.relationshipService.GetRelationshipsByUser(ctx, ports.RelationshipQuery{
			UserID:            userID,
			Type:              entities.ConversationTypeFriend,
			Limit:             100,
			ExclusiveStartKey: cursor,
		})
		if err != nil {
			return nil, err
		}

		for _, relationship := range page.Items {
			members, err := m.relationshipService.GetMembers(ctx, relationship.ConversationID)
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				if member.UserID == friendID {
					return m.conversationService.GetConversation(ctx, relationship.ConversationID)
				}
			}
		}

		if page.LastEvaluatedKey == "" {
			return nil, errors.NewNotFoundError("friend conversation")
		}
		cursor = page.LastEvaluatedKey
	}
}

// RemoveFriendByUser tears down the friend conversation between two users.
func (m *ConversationMediator) RemoveFriendByUser(ctx context.Context, userID, friendID string) error {
	conversation, err := m.GetFriendConversation(ctx, userID, friendID)
	if err != nil {
		return err
	}
	return m.RemoveFriend(ctx, conversation.ID, userID)
}

// RemoveFriend tears down a friend conversation: the root and both member
// rows go in one transaction.
func (m *ConversationMediator) RemoveFriend(ctx context.Context, conversationID, userID string) error {
	conversation, err := m.conversationService.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.IsFriend() {
		return errors.NewValidationError("not a friend conversation")
	}

	members, err := m.relationshipService.GetMembers(ctx, conversationID)
	if err != nil {
		return err
	}

	memberIDs := make([]string, 0, len(members))
	isMember := false
	for _, member := range members {
		memberIDs = append(memberIDs, member.UserID)
		if member.UserID == userID {
			isMember = true
		}
	}
	if !isMember {
		return errors.NewForbiddenError("not a member of this conversation")
	}

	return m.conversationService.DeleteFriendConversation(ctx, conversationID, memberIDs)
}

// GetConversationsByUser lists the user's conversations per the filter:
// by type (optionally meetings ordered by due date), only those with unread
// messages, matching a free-text search term, or everything by recency.
func (m *ConversationMediator) GetConversationsByUser(ctx context.Context, userID string, filter ConversationFilter) (*ConversationPage, error) {
	if filter.SearchTerm != "" {
		return m.searchConversations(ctx, userID, filter)
	}
	if filter.Unread {
		return m.unreadConversations(ctx, userID, filter)
	}

	page, err := m.relationshipService.GetRelationshipsByUser(ctx, ports.RelationshipQuery{
		UserID:            userID,
		Type:              filter.Type,
		ByDueDate:         filter.ByDueDate,
		Limit:             filter.Limit,
		ExclusiveStartKey: filter.ExclusiveStartKey,
	})
	if err != nil {
		return nil, err
	}

	views, err := m.hydrate(ctx, page.Items, false)
	if err != nil {
		return nil, err
	}

	return &ConversationPage{Items: views, LastEvaluatedKey: page.LastEvaluatedKey}, nil
}

// unreadConversations pages the recency index filtered to rows with a
// non-empty unread set, annotating each with its most recent message.
func (m *ConversationMediator) unreadConversations(ctx context.Context, userID string, filter ConversationFilter) (*ConversationPage, error) {
	page, err := m.relationshipService.GetRelationshipsByUser(ctx, ports.RelationshipQuery{
		UserID:            userID,
		Type:              filter.Type,
		Unread:            true,
		Limit:             filter.Limit,
		ExclusiveStartKey: filter.ExclusiveStartKey,
	})
	if err != nil {
		return nil, err
	}

	views, err := m.hydrate(ctx, page.Items, true)
	if err != nil {
		return nil, err
	}

	return &ConversationPage{Items: views, LastEvaluatedKey: page.LastEvaluatedKey}, nil
}

// searchConversations resolves the term through the search index, then joins
// the user's read state onto the matching conversations.
func (m *ConversationMediator) searchConversations(ctx context.Context, userID string, filter ConversationFilter) (*ConversationPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}

	ids, err := m.searchIndex.SearchConversationIDs(ctx, userID, filter.SearchTerm, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &ConversationPage{Items: []*ConversationView{}}, nil
	}

	conversations, err := m.conversationService.GetConversations(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		relationship, err := m.relationshipService.GetRelationship(ctx, conversation.ID, userID)
		if err != nil {
			// The index lags membership changes; drop conversations the user
			// no longer belongs to.
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		views = append(views, &ConversationView{
			Conversation:     conversation,
			Relationship:     relationship,
			UnreadMessageIDs: relationship.UnreadMessages,
		})
	}

	return &ConversationPage{Items: views}, nil
}

// hydrate joins conversation roots onto relationship rows, preserving the
// rows' order. Rows whose root is gone are dropped.
func (m *ConversationMediator) hydrate(ctx context.Context, relationships []*entities.ConversationUserRelationship, withRecentMessage bool) ([]*ConversationView, error) {
	if len(relationships) == 0 {
		return []*ConversationView{}, nil
	}

	ids := make([]string, 0, len(relationships))
	for _, relationship := range relationships {
		ids = append(ids, relationship.ConversationID)
	}

	conversations, err := m.conversationService.GetConversations(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Conversation, len(conversations))
	for _, conversation := range conversations {
		byID[conversation.ID] = conversation
	}

	views := make([]*ConversationView, 0, len(relationships))
	for _, relationship := range relationships {
		conversation, ok := byID[relationship.ConversationID]
		if !ok {
			continue
		}

		view := &ConversationView{
			Conversation:     conversation,
			Relationship:     relationship,
			UnreadMessageIDs: relationship.UnreadMessages,
		}

		if withRecentMessage && relationship.RecentMessageID != "" {
			message, err := m.messageService.GetMessage(ctx, relationship.RecentMessageID)
			if err != nil && !errors.IsNotFound(err) {
				return nil, err
			}
			view.RecentMessage = message
		}

		views = append(views, view)
	}

	return views, nil
}

func (m *ConversationMediator) requireMember(ctx context.Context, conversationID, userID string) error {
	isMember, err := m.relationshipService.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.NewForbiddenError("not a member of this conversation")
	}
	return nil
}

func userSummary(user *entities.User) ports.UserSummary {
	return ports.UserSummary{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Phone:    user.Phone,
		Name:     user.Name,
	}
}
