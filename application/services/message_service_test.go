package services

import (
	"context"
	"testing"
	"time"

	"converse-backend/application/ports/mocks"
	"converse-backend/domain/entities"
	apperrors "converse-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMessageServiceForTest(messageRepo *mocks.MessageRepository, relationshipRepo *mocks.RelationshipRepository) *MessageService {
	logger := zap.NewNop()
	return NewMessageService(messageRepo, NewRelationshipService(relationshipRepo, logger), logger)
}

func membershipRows(conversationID string, userIDs ...string) []*entities.ConversationUserRelationship {
	rows := make([]*entities.ConversationUserRelationship, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, &entities.ConversationUserRelationship{
			ConversationID:   conversationID,
			UserID:           userID,
			ConversationType: entities.ConversationTypeGroup,
			Role:             entities.RoleUser,
			UpdatedAt:        time.Now().UTC(),
		})
	}
	return rows
}

func TestConvertPendingToMessage_DerivesMessageID(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	pendingID := entities.NewPendingMessageID()
	wantID := entities.MessageIDFromPending(pendingID, false)

	messageRepo.On("GetPendingMessage", mock.Anything, pendingID).Return(&entities.PendingMessage{
		ID:             pendingID,
		ConversationID: "group-1",
		From:           "user-a",
		MimeType:       "audio/mp4",
		CreatedAt:      time.Now().UTC(),
	}, nil)
	relationshipRepo.On("GetByConversationID", mock.Anything, "group-1").
		Return(membershipRows("group-1", "user-a", "user-b"), nil)
	messageRepo.On("ConvertPendingToMessage", mock.Anything, pendingID, mock.MatchedBy(func(m *entities.Message) bool {
		return m.ID == wantID && m.SeenBy("user-a") && !m.SeenBy("user-b")
	})).Return(nil)

	message, err := service.ConvertPendingToMessage(context.Background(), pendingID, "hello there")

	require.NoError(t, err)
	assert.Equal(t, wantID, message.ID)
	assert.Equal(t, "hello there", message.Transcript)
	messageRepo.AssertExpectations(t)
}

func TestConvertPendingToMessage_ReplyIncrementsParentCount(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	pendingID := entities.NewPendingMessageID()
	wantID := entities.MessageIDFromPending(pendingID, true)

	messageRepo.On("GetPendingMessage", mock.Anything, pendingID).Return(&entities.PendingMessage{
		ID:             pendingID,
		ConversationID: "group-1",
		From:           "user-a",
		MimeType:       "audio/mp4",
		ReplyTo:        "message-root",
		CreatedAt:      time.Now().UTC(),
	}, nil)
	relationshipRepo.On("GetByConversationID", mock.Anything, "group-1").
		Return(membershipRows("group-1", "user-a"), nil)
	messageRepo.On("CreateReplyWithCountIncrement", mock.Anything, pendingID, mock.MatchedBy(func(m *entities.Message) bool {
		return m.ID == wantID && m.IsReply()
	})).Return(nil)

	message, err := service.ConvertPendingToMessage(context.Background(), pendingID, "a reply")

	require.NoError(t, err)
	assert.Equal(t, wantID, message.ID)
	messageRepo.AssertNotCalled(t, "ConvertPendingToMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestConvertPendingToMessage_GonePendingSurfacesNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	pendingID := entities.NewPendingMessageID()
	messageRepo.On("GetPendingMessage", mock.Anything, pendingID).
		Return(nil, apperrors.NewNotFoundError("pending message"))

	_, err := service.ConvertPendingToMessage(context.Background(), pendingID, "hello")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateMessageSeenState_KeepsUnreadSetInStep(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	msg, err := entities.NewMessage("message-1", "group-1", "user-a", "audio/mp4", "hi", "", []string{"user-a", "user-b"})
	require.NoError(t, err)

	messageRepo.On("GetByID", mock.Anything, "message-1").Return(msg, nil)
	messageRepo.On("UpdateSeenAt", mock.Anything, "message-1", "user-b", mock.MatchedBy(func(ts *time.Time) bool {
		return ts != nil
	})).Return(nil)
	relationshipRepo.On("RemoveUnreadMessages", mock.Anything, "group-1", "user-b", []string{"message-1"}).Return(nil)

	require.NoError(t, service.UpdateMessageSeenState(context.Background(), "message-1", "user-b", true))
	messageRepo.AssertExpectations(t)
	relationshipRepo.AssertExpectations(t)
}

func TestUpdateMessageSeenState_UnseenClearsTimestampAndReAdds(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	msg, err := entities.NewMessage("message-1", "group-1", "user-a", "audio/mp4", "hi", "", []string{"user-a", "user-b"})
	require.NoError(t, err)

	messageRepo.On("GetByID", mock.Anything, "message-1").Return(msg, nil)
	messageRepo.On("UpdateSeenAt", mock.Anything, "message-1", "user-b", (*time.Time)(nil)).Return(nil)
	relationshipRepo.On("AddUnreadMessages", mock.Anything, "group-1", "user-b", []string{"message-1"}).Return(nil)

	require.NoError(t, service.UpdateMessageSeenState(context.Background(), "message-1", "user-b", false))
	relationshipRepo.AssertExpectations(t)
}

func TestMarkConversationSeen_ClearsWholeSet(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	relationshipRepo.On("Get", mock.Anything, "group-1", "user-b").Return(&entities.ConversationUserRelationship{
		ConversationID:   "group-1",
		UserID:           "user-b",
		ConversationType: entities.ConversationTypeGroup,
		Role:             entities.RoleUser,
		UpdatedAt:        time.Now().UTC(),
		UnreadMessages:   []string{"message-1", "message-2"},
	}, nil)
	messageRepo.On("UpdateSeenAt", mock.Anything, "message-1", "user-b", mock.Anything).Return(nil)
	// message-2 was deleted since it went unread; the set still gets cleared
	messageRepo.On("UpdateSeenAt", mock.Anything, "message-2", "user-b", mock.Anything).
		Return(apperrors.NewNotFoundError("message"))
	relationshipRepo.On("RemoveUnreadMessages", mock.Anything, "group-1", "user-b", []string{"message-1", "message-2"}).Return(nil)

	seen, err := service.MarkConversationSeen(context.Background(), "group-1", "user-b")

	require.NoError(t, err)
	assert.Equal(t, []string{"message-1", "message-2"}, seen)
	relationshipRepo.AssertExpectations(t)
}

func TestMarkConversationSeen_EmptySetIsNoop(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	relationshipRepo.On("Get", mock.Anything, "group-1", "user-b").Return(&entities.ConversationUserRelationship{
		ConversationID:   "group-1",
		UserID:           "user-b",
		ConversationType: entities.ConversationTypeGroup,
		Role:             entities.RoleUser,
		UpdatedAt:        time.Now().UTC(),
	}, nil)

	seen, err := service.MarkConversationSeen(context.Background(), "group-1", "user-b")

	require.NoError(t, err)
	assert.Empty(t, seen)
	messageRepo.AssertNotCalled(t, "UpdateSeenAt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkConversationUnseen_RestoresRecentMessage(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	relationshipRepo.On("Get", mock.Anything, "group-1", "user-b").Return(&entities.ConversationUserRelationship{
		ConversationID:   "group-1",
		UserID:           "user-b",
		ConversationType: entities.ConversationTypeGroup,
		Role:             entities.RoleUser,
		UpdatedAt:        time.Now().UTC(),
		RecentMessageID:  "message-9",
	}, nil)
	messageRepo.On("UpdateSeenAt", mock.Anything, "message-9", "user-b", (*time.Time)(nil)).Return(nil)
	relationshipRepo.On("AddUnreadMessages", mock.Anything, "group-1", "user-b", []string{"message-9"}).Return(nil)

	unseen, err := service.MarkConversationUnseen(context.Background(), "group-1", "user-b")

	require.NoError(t, err)
	assert.Equal(t, []string{"message-9"}, unseen)
	relationshipRepo.AssertExpectations(t)
}

func TestMarkConversationUnseen_NoRecentMessageIsNoop(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	relationshipRepo := new(mocks.RelationshipRepository)
	service := newMessageServiceForTest(messageRepo, relationshipRepo)

	relationshipRepo.On("Get", mock.Anything, "group-1", "user-b").Return(&entities.ConversationUserRelationship{
		ConversationID:   "group-1",
		UserID:           "user-b",
		ConversationType: entities.ConversationTypeGroup,
		Role:             entities.RoleUser,
		UpdatedAt:        time.Now().UTC(),
	}, nil)

	unseen, err := service.MarkConversationUnseen(context.Background(), "group-1", "user-b")

	require.NoError(t, err)
	assert.Empty(t, unseen)
	relationshipRepo.AssertNotCalled(t, "AddUnreadMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMessageReactions_Validation(t *testing.T) {
	messageRepo := new(mocks.MessageRepository)
	service := newMessageServiceForTest(messageRepo, new(mocks.RelationshipRepository))

	err := service.UpdateMessageReactions(context.Background(), "message-1", "user-a", []entities.ReactionChange{
		{Reaction: "", Action: entities.ReactionActionAdd},
	})
	assert.True(t, apperrors.IsValidation(err))

	err = service.UpdateMessageReactions(context.Background(), "message-1", "user-a", []entities.ReactionChange{
		{Reaction: "thumbsup", Action: "toggle"},
	})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, service.UpdateMessageReactions(context.Background(), "message-1", "user-a", nil))
	messageRepo.AssertNotCalled(t, "ApplyReactionChanges", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
