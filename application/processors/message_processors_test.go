package processors

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

type messageProcessorFixture struct {
	messageRepo *mocks.MessageRepository
	convRepo    *mocks.ConversationRepository
	relRepo     *mocks.RelationshipRepository
	userRepo    *mocks.UserRepository
	publisher   *mocks.NotificationPublisher
}

func newMessageProcessorFixture() *messageProcessorFixture {
	return &messageProcessorFixture{
		messageRepo: new(mocks.MessageRepository),
		convRepo:    new(mocks.ConversationRepository),
		relRepo:     new(mocks.RelationshipRepository),
		userRepo:    new(mocks.UserRepository),
		publisher:   new(mocks.NotificationPublisher),
	}
}

func (f *messageProcessorFixture) created() *MessageCreatedProcessor {
	logger := zap.NewNop()
	relationshipService := services.NewRelationshipService(f.relRepo, logger)
	return NewMessageCreatedProcessor(
		services.NewMessageService(f.messageRepo, relationshipService, logger),
		services.NewConversationService(f.convRepo, logger),
		relationshipService,
		services.NewUserService(f.userRepo, logger),
		f.publisher,
		logger,
	)
}

func (f *messageProcessorFixture) updated() *MessageUpdatedProcessor {
	logger := zap.NewNop()
	relationshipService := services.NewRelationshipService(f.relRepo, logger)
	return NewMessageUpdatedProcessor(
		services.NewMessageService(f.messageRepo, relationshipService, logger),
		services.NewConversationService(f.convRepo, logger),
		relationshipService,
		services.NewUserService(f.userRepo, logger),
		f.publisher,
		logger,
	)
}

func storedMessage(t *testing.T, id, conversationID, from string, memberIDs []string) *entities.Message {
	t.Helper()
	message, err := entities.NewMessage(id, conversationID, from, "audio/mp4", "hello", "", memberIDs)
	require.NoError(t, err)
	return message
}

func TestMessageCreatedProcessor_ClaimsOnlyCompleteMessageInserts(t *testing.T) {
	p := newMessageProcessorFixture().created()

	assert.True(t, p.DetermineRecordSupport(insertRecord(messageImage("message-1", "group-1", "user-a"))))

	assert.False(t, p.DetermineRecordSupport(modifyRecord(messageImage("message-1", "group-1", "user-a"))))
	assert.False(t, p.DetermineRecordSupport(insertRecord(conversationImage("group-1", entities.ConversationTypeGroup, "user-a"))))

	noFrom := messageImage("message-1", "group-1", "user-a")
	delete(noFrom, attrFrom)
	assert.False(t, p.DetermineRecordSupport(insertRecord(noFrom)))
}

func TestMessageCreatedProcessor_FansOutThenPublishes(t *testing.T) {
	f := newMessageProcessorFixture()
	p := f.created()

	f.convRepo.On("GetByID", mock.Anything, "group-1").Return(groupEntity("group-1", "user-a"), nil)
	f.relRepo.On("GetByConversationID", mock.Anything, "group-1").Return([]*entities.ConversationUserRelationship{
		memberRow("group-1", "user-a", entities.ConversationTypeGroup),
		memberRow("group-1", "user-b", entities.ConversationTypeGroup),
		memberRow("group-1", "user-c", entities.ConversationTypeGroup),
	}, nil)

	// Sender gets a recency touch, everyone else an unread entry.
	f.relRepo.On("Touch", mock.Anything, "group-1", "user-a", "message-1", mock.Anything).Return(nil)
	f.relRepo.On("AddUnreadMessage", mock.Anything, "group-1", "user-b", "message-1").Return(nil)
	f.relRepo.On("AddUnreadMessage", mock.Anything, "group-1", "user-c", "message-1").Return(nil)

	f.messageRepo.On("GetByID", mock.Anything, "message-1").
		Return(storedMessage(t, "message-1", "group-1", "user-a", []string{"user-a", "user-b", "user-c"}), nil)
	f.userRepo.On("GetByID", mock.Anything, "user-a").Return(&entities.User{ID: "user-a", Username: "alice"}, nil)
	f.publisher.On("SendGroupMessageCreated", mock.Anything, mock.MatchedBy(func(msg ports.GroupMessageCreatedMessage) bool {
		return msg.Message.ID == "message-1" && msg.Message.From.Username == "alice" && len(msg.GroupMemberIDs) == 3
	})).Return(nil)

	err := p.ProcessRecord(context.Background(), insertRecord(messageImage("message-1", "group-1", "user-a")))

	require.NoError(t, err)
	f.relRepo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestMessageCreatedProcessor_FriendNotifiesRecipientOnly(t *testing.T) {
	f := newMessageProcessorFixture()
	p := f.created()

	f.convRepo.On("GetByID", mock.Anything, "friend-1").Return(friendEntity("friend-1", "user-a"), nil)
	f.relRepo.On("GetByConversationID", mock.Anything, "friend-1").Return([]*entities.ConversationUserRelationship{
		memberRow("friend-1", "user-a", entities.ConversationTypeFriend),
		memberRow("friend-1", "user-b", entities.ConversationTypeFriend),
	}, nil)
	f.relRepo.On("Touch", mock.Anything, "friend-1", "user-a", "message-1", mock.Anything).Return(nil)
	f.relRepo.On("AddUnreadMessage", mock.Anything, "friend-1", "user-b", "message-1").Return(nil)

	f.messageRepo.On("GetByID", mock.Anything, "message-1").
		Return(storedMessage(t, "message-1", "friend-1", "user-a", []string{"user-a", "user-b"}), nil)
	f.userRepo.On("GetByID", mock.Anything, "user-a").Return(&entities.User{ID: "user-a", Username: "alice"}, nil)
	f.userRepo.On("GetByID", mock.Anything, "user-b").Return(&entities.User{ID: "user-b", Username: "bob"}, nil)
	f.publisher.On("SendFriendMessageCreated", mock.Anything, mock.MatchedBy(func(msg ports.FriendMessageCreatedMessage) bool {
		return msg.ConversationID == "friend-1" && msg.To.ID == "user-b"
	})).Return(nil).Once()

	err := p.ProcessRecord(context.Background(), insertRecord(messageImage("message-1", "friend-1", "user-a")))

	require.NoError(t, err)
	f.publisher.AssertExpectations(t)
	f.publisher.AssertNumberOfCalls(t, "SendFriendMessageCreated", 1)
}

func TestMessageCreatedProcessor_ConversationGoneIsNoop(t *testing.T) {
	f := newMessageProcessorFixture()
	p := f.created()

	f.convRepo.On("GetByID", mock.Anything, "group-1").Return(nil, apperrors.NewNotFoundError("conversation"))

	err := p.ProcessRecord(context.Background(), insertRecord(messageImage("message-1", "group-1", "user-a")))

	require.NoError(t, err)
	f.relRepo.AssertNotCalled(t, "AddUnreadMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageCreatedProcessor_FanOutErrorRedelivers(t *testing.T) {
	f := newMessageProcessorFixture()
	p := f.created()

	f.convRepo.On("GetByID", mock.Anything, "group-1").Return(groupEntity("group-1", "user-a"), nil)
	f.relRepo.On("GetByConversationID", mock.Anything, "group-1").Return([]*entities.ConversationUserRelationship{
		memberRow("group-1", "user-a", entities.ConversationTypeGroup),
		memberRow("group-1", "user-b", entities.ConversationTypeGroup),
	}, nil)
	f.relRepo.On("Touch", mock.Anything, "group-1", "user-a", "message-1", mock.Anything).Return(nil)
	f.relRepo.On("AddUnreadMessage", mock.Anything, "group-1", "user-b", "message-1").
		Return(apperrors.NewDatabaseError("add unread message", assert.AnError))

	err := p.ProcessRecord(context.Background(), insertRecord(messageImage("message-1", "group-1", "user-a")))

	require.Error(t, err)
	f.publisher.AssertNotCalled(t, "SendGroupMessageCreated", mock.Anything, mock.Anything)
}

func TestMessageUpdatedProcessor_MeetingPublishesUpdate(t *testing.T) {
	f := newMessageProcessorFixture()
	p := f.updated()

	dueDate := time.Now().UTC().Add(24 * time.Hour)
	f.messageRepo.On("GetByID", mock.Anything, "message-1").
		Return(storedMessage(t, "message-1", "meeting-1", "user-a", []string{"user-a", "user-b"}), nil)
	f.convRepo.On("GetByID", mock.Anything, "meeting-1").Return(meetingEntity("meeting-1", "user-a", dueDate), nil)
	f.relRepo.On("GetByConversationID", mock.Anything, "meeting-1").Return([]*entities.ConversationUserRelationship{
		memberRow("meeting-1", "user-a", entities.ConversationTypeMeeting),
		memberRow("meeting-1", "user-b", entities.ConversationTypeMeeting),
	}, nil)
	f.userRepo.On("GetByID", mock.Anything, "user-a").Return(&entities.User{ID: "user-a", Username: "alice"}, nil)
	f.publisher.On("SendMeetingMessageUpdated", mock.Anything, mock.MatchedBy(func(msg ports.MeetingMessageUpdatedMessage) bool {
		return msg.Meeting.ID == "meeting-1" && msg.Message.ID == "message-1"
	})).Return(nil)

	err := p.ProcessRecord(context.Background(), modifyRecord(messageImage("message-1", "meeting-1", "user-a")))

	require.NoError(t, err)
	f.publisher.AssertExpectations(t)
}

func TestMessageUpdatedProcessor_DeletedSenderKeepsID(t *testing.T) {
	f := newMessageProcessorFixture()
	p := f.updated()

	f.messageRepo.On("GetByID", mock.Anything, "message-1").
		Return(storedMessage(t, "message-1", "group-1", "user-gone", []string{"user-gone", "user-b"}), nil)
	f.convRepo.On("GetByID", mock.Anything, "group-1").Return(groupEntity("group-1", "user-b"), nil)
	f.relRepo.On("GetByConversationID", mock.Anything, "group-1").Return([]*entities.ConversationUserRelationship{
		memberRow("group-1", "user-b", entities.ConversationTypeGroup),
	}, nil)
	f.userRepo.On("GetByID", mock.Anything, "user-gone").Return(nil, apperrors.NewNotFoundError("user"))
	f.publisher.On("SendGroupMessageUpdated", mock.Anything, mock.MatchedBy(func(msg ports.GroupMessageUpdatedMessage) bool {
		return msg.Message.From.ID == "user-gone" && msg.Message.From.Username == ""
	})).Return(nil)

	err := p.ProcessRecord(context.Background(), modifyRecord(messageImage("message-1", "group-1", "user-gone")))

	require.NoError(t, err)
	f.publisher.AssertExpectations(t)
}
