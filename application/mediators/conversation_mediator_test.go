package mediators

import (
	"context"
	"testing"
	"time"

	"converse-backend/application/ports"
	"converse-backend/application/ports/mocks"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	apperrors "converse-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mediatorFixture struct {
	conversationRepo *mocks.ConversationRepository
	relationshipRepo *mocks.RelationshipRepository
	messageRepo      *mocks.MessageRepository
	userRepo         *mocks.UserRepository
	searchIndex      *mocks.ConversationSearchIndex
	mediator         *ConversationMediator
}

func newMediatorFixture() *mediatorFixture {
	f := &mediatorFixture{
		conversationRepo: new(mocks.ConversationRepository),
		relationshipRepo: new(mocks.RelationshipRepository),
		messageRepo:      new(mocks.MessageRepository),
		userRepo:         new(mocks.UserRepository),
		searchIndex:      new(mocks.ConversationSearchIndex),
	}
	logger := zap.NewNop()
	relationshipService := services.NewRelationshipService(f.relationshipRepo, logger)
	f.mediator = NewConversationMediator(
		services.NewConversationService(f.conversationRepo, logger),
		relationshipService,
		services.NewUserService(f.userRepo, logger),
		services.NewMessageService(f.messageRepo, relationshipService, logger),
		f.searchIndex,
		logger,
	)
	return f
}

func groupConversation(id, createdBy string) *entities.Conversation {
	return &entities.Conversation{
		ID:        id,
		Type:      entities.ConversationTypeGroup,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Name:      "a group",
	}
}

func friendConversation(id, createdBy string) *entities.Conversation {
	return &entities.Conversation{
		ID:        id,
		Type:      entities.ConversationTypeFriend,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
}

func relationship(conversationID, userID string, convType entities.ConversationType, role entities.Role) *entities.ConversationUserRelationship {
	return &entities.ConversationUserRelationship{
		ConversationID:   conversationID,
		UserID:           userID,
		ConversationType: convType,
		Role:             role,
		UpdatedAt:        time.Now().UTC(),
	}
}

func TestAddUsersToConversation_PartitionsEveryIdentifier(t *testing.T) {
	f := newMediatorFixture()

	conv := groupConversation("group-1", "user-admin")
	f.conversationRepo.On("GetByID", mock.Anything, "group-1").Return(conv, nil)
	f.relationshipRepo.On("Get", mock.Anything, "group-1", "user-admin").
		Return(relationship("group-1", "user-admin", entities.ConversationTypeGroup, entities.RoleAdmin), nil)

	// ada resolves and joins
	f.userRepo.On("GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "ada").
		Return(&entities.User{ID: "user-ada", Username: "ada"}, nil)
	f.relationshipRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.ConversationUserRelationship) bool {
		return r.UserID == "user-ada" && r.Role == entities.RoleUser
	})).Return(nil)

	// ghost does not exist
	f.userRepo.On("GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "ghost").
		Return(nil, apperrors.NewNotFoundError("user"))

	// bob exists but is already in
	f.userRepo.On("GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "bob").
		Return(&entities.User{ID: "user-bob", Username: "bob"}, nil)
	f.relationshipRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.ConversationUserRelationship) bool {
		return r.UserID == "user-bob"
	})).Return(apperrors.NewConflictError("user is already a member"))

	result, err := f.mediator.AddUsersToConversation(context.Background(), "group-1", "user-admin", []AddUserInput{
		{Identifier: "ada"},
		{Identifier: "ghost"},
		{Identifier: "bob"},
	})

	require.NoError(t, err)
	require.Len(t, result.Successes, 1)
	assert.Equal(t, "ada", result.Successes[0].Identifier)
	assert.Equal(t, "user-ada", result.Successes[0].User.ID)

	require.Len(t, result.Failures, 2)
	assert.Equal(t, "ghost", result.Failures[0].Identifier)
	assert.Equal(t, "user not found", result.Failures[0].Reason)
	assert.Equal(t, "bob", result.Failures[1].Identifier)
	assert.Equal(t, "already a member", result.Failures[1].Reason)
}

func TestAddUsersToConversation_NonAdminForbidden(t *testing.T) {
	f := newMediatorFixture()

	f.conversationRepo.On("GetByID", mock.Anything, "group-1").Return(groupConversation("group-1", "user-admin"), nil)
	f.relationshipRepo.On("Get", mock.Anything, "group-1", "user-pleb").
		Return(relationship("group-1", "user-pleb", entities.ConversationTypeGroup, entities.RoleUser), nil)

	_, err := f.mediator.AddUsersToConversation(context.Background(), "group-1", "user-pleb", []AddUserInput{{Identifier: "ada"}})

	assert.True(t, apperrors.IsForbidden(err))
}

func TestAddUsersToConversation_FriendConversationRejected(t *testing.T) {
	f := newMediatorFixture()

	f.conversationRepo.On("GetByID", mock.Anything, "friend-1").Return(friendConversation("friend-1", "user-a"), nil)

	_, err := f.mediator.AddUsersToConversation(context.Background(), "friend-1", "user-a", []AddUserInput{{Identifier: "ada"}})

	assert.True(t, apperrors.IsValidation(err))
}

func TestAddUsersToConversation_CarriesRequestedRole(t *testing.T) {
	f := newMediatorFixture()

	conv := groupConversation("group-1", "user-admin")
	f.conversationRepo.On("GetByID", mock.Anything, "group-1").Return(conv, nil)
	f.relationshipRepo.On("Get", mock.Anything, "group-1", "user-admin").
		Return(relationship("group-1", "user-admin", entities.ConversationTypeGroup, entities.RoleAdmin), nil)

	f.userRepo.On("GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "ada").
		Return(&entities.User{ID: "user-ada", Username: "ada"}, nil)
	f.relationshipRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.ConversationUserRelationship) bool {
		return r.UserID == "user-ada" && r.Role == entities.RoleAdmin
	})).Return(nil)

	result, err := f.mediator.AddUsersToConversation(context.Background(), "group-1", "user-admin", []AddUserInput{
		{Identifier: "ada", Role: entities.RoleAdmin},
		{Identifier: "bob", Role: "OWNER"},
	})

	require.NoError(t, err)
	require.Len(t, result.Successes, 1)
	assert.Equal(t, "ada", result.Successes[0].Identifier)

	// A made-up role fails that entry without touching the store.
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bob", result.Failures[0].Identifier)
	assert.Equal(t, "invalid role", result.Failures[0].Reason)
	f.userRepo.AssertNotCalled(t, "GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "bob")
}

func TestRemoveUserFromConversation_SelfRemovalAllowed(t *testing.T) {
	f := newMediatorFixture()

	f.conversationRepo.On("GetByID", mock.Anything, "group-1").Return(groupConversation("group-1", "user-admin"), nil)
	f.relationshipRepo.On("Delete", mock.Anything, "group-1", "user-b").Return(nil)

	err := f.mediator.RemoveUserFromConversation(context.Background(), "group-1", "user-b", "user-b")

	require.NoError(t, err)
	// Self-removal needs no admin check
	f.relationshipRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveUserFromConversation_RemovingOthersNeedsAdmin(t *testing.T) {
	f := newMediatorFixture()

	f.conversationRepo.On("GetByID", mock.Anything, "group-1").Return(groupConversation("group-1", "user-admin"), nil)
	f.relationshipRepo.On("Get", mock.Anything, "group-1", "user-b").
		Return(relationship("group-1", "user-b", entities.ConversationTypeGroup, entities.RoleUser), nil)

	err := f.mediator.RemoveUserFromConversation(context.Background(), "group-1", "user-b", "user-c")

	assert.True(t, apperrors.IsForbidden(err))
	f.relationshipRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetFriendConversation_FindsSharedPair(t *testing.T) {
	f := newMediatorFixture()

	f.relationshipRepo.On("GetByUserID", mock.Anything, mock.MatchedBy(func(q ports.RelationshipQuery) bool {
		return q.UserID == "user-a" && q.Type == entities.ConversationTypeFriend
	})).Return(&ports.RelationshipPage{
		Items: []*entities.ConversationUserRelationship{
			relationship("friend-1", "user-a", entities.ConversationTypeFriend, entities.RoleUser),
			relationship("friend-2", "user-a", entities.ConversationTypeFriend, entities.RoleUser),
		},
	}, nil)

	f.relationshipRepo.On("GetByConversationID", mock.Anything, "friend-1").Return([]*entities.ConversationUserRelationship{
		relationship("friend-1", "user-a", entities.ConversationTypeFriend, entities.RoleUser),
		relationship("friend-1", "user-x", entities.ConversationTypeFriend, entities.RoleUser),
	}, nil)
	f.relationshipRepo.On("GetByConversationID", mock.Anything, "friend-2").Return([]*entities.ConversationUserRelationship{
		relationship("friend-2", "user-a", entities.ConversationTypeFriend, entities.RoleUser),
		relationship("friend-2", "user-b", entities.ConversationTypeFriend, entities.RoleUser),
	}, nil)
	f.conversationRepo.On("GetByID", mock.Anything, "friend-2").Return(friendConversation("friend-2", "user-a"), nil)

	conv, err := f.mediator.GetFriendConversation(context.Background(), "user-a", "user-b")

	require.NoError(t, err)
	assert.Equal(t, "friend-2", conv.ID)
}

func TestGetFriendConversation_NoPairIsNotFound(t *testing.T) {
	f := newMediatorFixture()

	f.relationshipRepo.On("GetByUserID", mock.Anything, mock.Anything).
		Return(&ports.RelationshipPage{Items: []*entities.ConversationUserRelationship{}}, nil)

	_, err := f.mediator.GetFriendConversation(context.Background(), "user-a", "user-b")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddFriend_ExistingPairIsConflict(t *testing.T) {
	f := newMediatorFixture()

	f.userRepo.On("GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "bob").
		Return(&entities.User{ID: "user-b", Username: "bob"}, nil)
	f.relationshipRepo.On("GetByUserID", mock.Anything, mock.Anything).Return(&ports.RelationshipPage{
		Items: []*entities.ConversationUserRelationship{
			relationship("friend-1", "user-a", entities.ConversationTypeFriend, entities.RoleUser),
		},
	}, nil)
	f.relationshipRepo.On("GetByConversationID", mock.Anything, "friend-1").Return([]*entities.ConversationUserRelationship{
		relationship("friend-1", "user-a", entities.ConversationTypeFriend, entities.RoleUser),
		relationship("friend-1", "user-b", entities.ConversationTypeFriend, entities.RoleUser),
	}, nil)
	f.conversationRepo.On("GetByID", mock.Anything, "friend-1").Return(friendConversation("friend-1", "user-a"), nil)

	_, _, err := f.mediator.AddFriend(context.Background(), "user-a", "bob")

	assert.True(t, apperrors.IsConflict(err))
	f.conversationRepo.AssertNotCalled(t, "CreateWithMembers", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddFriend_CreatesTwoMemberConversation(t *testing.T) {
	f := newMediatorFixture()

	f.userRepo.On("GetByUniqueProperty", mock.Anything, entities.UniquePropertyUsername, "bob").
		Return(&entities.User{ID: "user-b", Username: "bob"}, nil)
	f.relationshipRepo.On("GetByUserID", mock.Anything, mock.Anything).
		Return(&ports.RelationshipPage{Items: []*entities.ConversationUserRelationship{}}, nil)
	f.conversationRepo.On("CreateWithMembers", mock.Anything, mock.MatchedBy(func(c *entities.Conversation) bool {
		return c.IsFriend() && c.CreatedBy == "user-a"
	}), mock.MatchedBy(func(rels []*entities.ConversationUserRelationship) bool {
		return len(rels) == 2
	})).Return(nil)

	conv, friend, err := f.mediator.AddFriend(context.Background(), "user-a", "bob")

	require.NoError(t, err)
	assert.True(t, conv.IsFriend())
	assert.Equal(t, "user-b", friend.ID)
	f.conversationRepo.AssertExpectations(t)
}

func TestGetConversationsByUser_UnreadUsesFilteredQuery(t *testing.T) {
	f := newMediatorFixture()

	rel := relationship("group-1", "user-a", entities.ConversationTypeGroup, entities.RoleUser)
	rel.UnreadMessages = []string{"message-9"}
	rel.RecentMessageID = "message-9"

	f.relationshipRepo.On("GetByUserID", mock.Anything, mock.MatchedBy(func(q ports.RelationshipQuery) bool {
		return q.UserID == "user-a" && q.Unread
	})).Return(&ports.RelationshipPage{Items: []*entities.ConversationUserRelationship{rel}}, nil)
	f.conversationRepo.On("GetByIDs", mock.Anything, []string{"group-1"}).
		Return([]*entities.Conversation{groupConversation("group-1", "user-x")}, nil)

	recent, err := entities.NewMessage("message-9", "group-1", "user-x", "audio/mp4", "latest", "", []string{"user-x", "user-a"})
	require.NoError(t, err)
	f.messageRepo.On("GetByID", mock.Anything, "message-9").Return(recent, nil)

	page, err := f.mediator.GetConversationsByUser(context.Background(), "user-a", ConversationFilter{Unread: true})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"message-9"}, page.Items[0].UnreadMessageIDs)
	require.NotNil(t, page.Items[0].RecentMessage)
	assert.Equal(t, "message-9", page.Items[0].RecentMessage.ID)
}

func TestGetConversationsByUser_SearchDropsStaleMemberships(t *testing.T) {
	f := newMediatorFixture()

	f.searchIndex.On("SearchConversationIDs", mock.Anything, "user-a", "launch", 25).
		Return([]string{"group-1", "group-2"}, nil)
	f.conversationRepo.On("GetByIDs", mock.Anything, []string{"group-1", "group-2"}).
		Return([]*entities.Conversation{
			groupConversation("group-1", "user-x"),
			groupConversation("group-2", "user-x"),
		}, nil)
	f.relationshipRepo.On("Get", mock.Anything, "group-1", "user-a").
		Return(relationship("group-1", "user-a", entities.ConversationTypeGroup, entities.RoleUser), nil)
	// The index lags: user-a already left group-2
	f.relationshipRepo.On("Get", mock.Anything, "group-2", "user-a").
		Return(nil, apperrors.NewNotFoundError("relationship"))

	page, err := f.mediator.GetConversationsByUser(context.Background(), "user-a", ConversationFilter{SearchTerm: "launch"})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "group-1", page.Items[0].Conversation.ID)
}

func TestGetConversation_NonMemberForbidden(t *testing.T) {
	f := newMediatorFixture()

	f.relationshipRepo.On("Get", mock.Anything, "group-1", "user-x").
		Return(nil, apperrors.NewNotFoundError("relationship"))

	_, err := f.mediator.GetConversation(context.Background(), "group-1", "user-x")

	assert.True(t, apperrors.IsForbidden(err))
}
