package processors

import (
	"context"
	"testing"

	"converse-backend/application/ports"
	"converse-backend/application/ports/mocks"
	"converse-backend/application/services"
	"converse-backend/domain/entities"
	apperrors "converse-backend/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGroupCreatedProcessor(convRepo *mocks.ConversationRepository, relRepo *mocks.RelationshipRepository, publisher *mocks.NotificationPublisher) *GroupCreatedProcessor {
	logger := zap.NewNop()
	return NewGroupCreatedProcessor(
		services.NewConversationService(convRepo, logger),
		services.NewRelationshipService(relRepo, logger),
		publisher,
		logger,
	)
}

func TestGroupCreatedProcessor_ClaimsOnlyGroupInserts(t *testing.T) {
	p := newGroupCreatedProcessor(new(mocks.ConversationRepository), new(mocks.RelationshipRepository), new(mocks.NotificationPublisher))

	assert.True(t, p.DetermineRecordSupport(insertRecord(conversationImage("group-1", entities.ConversationTypeGroup, "user-a"))))

	assert.False(t, p.DetermineRecordSupport(modifyRecord(conversationImage("group-1", entities.ConversationTypeGroup, "user-a"))))
	assert.False(t, p.DetermineRecordSupport(insertRecord(conversationImage("meeting-1", entities.ConversationTypeMeeting, "user-a"))))
	assert.False(t, p.DetermineRecordSupport(insertRecord(membershipImage("group-1", "user-a", entities.ConversationTypeGroup))))

	// Missing and mistyped attributes must not panic the support check.
	assert.False(t, p.DetermineRecordSupport(insertRecord(map[string]events.DynamoDBAttributeValue{})))
	assert.False(t, p.DetermineRecordSupport(insertRecord(map[string]events.DynamoDBAttributeValue{
		attrEntityType: events.NewNumberAttribute("42"),
	})))

	noID := conversationImage("group-1", entities.ConversationTypeGroup, "user-a")
	delete(noID, attrID)
	assert.False(t, p.DetermineRecordSupport(insertRecord(noID)))
}

func TestGroupCreatedProcessor_PublishesFreshMembership(t *testing.T) {
	convRepo := new(mocks.ConversationRepository)
	relRepo := new(mocks.RelationshipRepository)
	publisher := new(mocks.NotificationPublisher)
	p := newGroupCreatedProcessor(convRepo, relRepo, publisher)

	convRepo.On("GetByID", mock.Anything, "group-1").Return(groupEntity("group-1", "user-a"), nil)
	relRepo.On("GetByConversationID", mock.Anything, "group-1").Return([]*entities.ConversationUserRelationship{
		memberRow("group-1", "user-a", entities.ConversationTypeGroup),
		memberRow("group-1", "user-b", entities.ConversationTypeGroup),
	}, nil)
	publisher.On("SendGroupCreated", mock.Anything, mock.MatchedBy(func(msg ports.GroupCreatedMessage) bool {
		return msg.Group.ID == "group-1" && len(msg.GroupMemberIDs) == 2
	})).Return(nil)

	err := p.ProcessRecord(context.Background(), insertRecord(conversationImage("group-1", entities.ConversationTypeGroup, "user-a")))

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestGroupCreatedProcessor_GoneGroupSkipsQuietly(t *testing.T) {
	convRepo := new(mocks.ConversationRepository)
	publisher := new(mocks.NotificationPublisher)
	p := newGroupCreatedProcessor(convRepo, new(mocks.RelationshipRepository), publisher)

	convRepo.On("GetByID", mock.Anything, "group-1").Return(nil, apperrors.NewNotFoundError("conversation"))

	err := p.ProcessRecord(context.Background(), insertRecord(conversationImage("group-1", entities.ConversationTypeGroup, "user-a")))

	require.NoError(t, err)
	publisher.AssertNotCalled(t, "SendGroupCreated", mock.Anything, mock.Anything)
}

func TestFriendAddedProcessor_OrdersPairByCreator(t *testing.T) {
	relRepo := new(mocks.RelationshipRepository)
	userRepo := new(mocks.UserRepository)
	publisher := new(mocks.NotificationPublisher)
	logger := zap.NewNop()
	p := NewFriendAddedProcessor(
		services.NewRelationshipService(relRepo, logger),
		services.NewUserService(userRepo, logger),
		publisher,
		logger,
	)

	// Member rows come back in storage order, added user first.
	relRepo.On("GetByConversationID", mock.Anything, "friend-1").Return([]*entities.ConversationUserRelationship{
		memberRow("friend-1", "user-b", entities.ConversationTypeFriend),
		memberRow("friend-1", "user-a", entities.ConversationTypeFriend),
	}, nil)
	userRepo.On("GetByIDs", mock.Anything, mock.Anything).Return([]*entities.User{
		{ID: "user-a", Username: "alice"},
		{ID: "user-b", Username: "bob"},
	}, nil)
	publisher.On("SendUserAddedAsFriend", mock.Anything, mock.MatchedBy(func(msg ports.UserAddedAsFriendMessage) bool {
		return msg.AddingUser.User.ID == "user-a" && msg.AddedUser.User.ID == "user-b"
	})).Return(nil)

	err := p.ProcessRecord(context.Background(), insertRecord(conversationImage("friend-1", entities.ConversationTypeFriend, "user-a")))

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestFriendAddedProcessor_OddMembershipSkips(t *testing.T) {
	relRepo := new(mocks.RelationshipRepository)
	publisher := new(mocks.NotificationPublisher)
	logger := zap.NewNop()
	p := NewFriendAddedProcessor(
		services.NewRelationshipService(relRepo, logger),
		services.NewUserService(new(mocks.UserRepository), logger),
		publisher,
		logger,
	)

	relRepo.On("GetByConversationID", mock.Anything, "friend-1").Return([]*entities.ConversationUserRelationship{
		memberRow("friend-1", "user-a", entities.ConversationTypeFriend),
	}, nil)

	err := p.ProcessRecord(context.Background(), insertRecord(conversationImage("friend-1", entities.ConversationTypeFriend, "user-a")))

	require.NoError(t, err)
	publisher.AssertNotCalled(t, "SendUserAddedAsFriend", mock.Anything, mock.Anything)
}

func TestFriendRemovedProcessor_SupportNeedsMembershipSnapshot(t *testing.T) {
	p := NewFriendRemovedProcessor(new(mocks.NotificationPublisher), zap.NewNop())

	image := conversationImage("friend-1", entities.ConversationTypeFriend, "user-a")
	image["InitialMemberIDs"] = events.NewStringSetAttribute([]string{"user-a", "user-b"})
	assert.True(t, p.DetermineRecordSupport(removeRecord(image)))

	// Without the snapshot the removed side cannot be recovered.
	bare := conversationImage("friend-1", entities.ConversationTypeFriend, "user-a")
	assert.False(t, p.DetermineRecordSupport(removeRecord(bare)))

	// Snapshots of the wrong size are not claimed either.
	three := conversationImage("friend-1", entities.ConversationTypeFriend, "user-a")
	three["InitialMemberIDs"] = events.NewStringSetAttribute([]string{"user-a", "user-b", "user-c"})
	assert.False(t, p.DetermineRecordSupport(removeRecord(three)))
}

func TestFriendRemovedProcessor_NotifiesNonCreatorAsRemoved(t *testing.T) {
	publisher := new(mocks.NotificationPublisher)
	p := NewFriendRemovedProcessor(publisher, zap.NewNop())

	publisher.On("SendUserRemovedAsFriend", mock.Anything, ports.UserRemovedAsFriendMessage{
		UserID:        "user-a",
		RemovedUserID: "user-b",
	}).Return(nil)

	image := conversationImage("friend-1", entities.ConversationTypeFriend, "user-a")
	image["InitialMemberIDs"] = events.NewStringSetAttribute([]string{"user-a", "user-b"})

	err := p.ProcessRecord(context.Background(), removeRecord(image))

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}
