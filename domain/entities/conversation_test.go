package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroupConversation(t *testing.T) {
	conv, err := NewGroupConversation("launch planning", "user-a", "team-1", "organization-1")
	require.NoError(t, err)

	assert.Equal(t, ConversationTypeGroup, conv.Type)
	assert.Contains(t, conv.ID, GroupIDPrefix)
	assert.Equal(t, "user-a", conv.CreatedBy)
	assert.Nil(t, conv.DueDate)
	assert.False(t, conv.IsFriend())
}

func TestNewGroupConversation_RequiresName(t *testing.T) {
	_, err := NewGroupConversation("", "user-a", "", "")
	assert.Error(t, err)
}

func TestNewMeetingConversation(t *testing.T) {
	due := time.Now().Add(48 * time.Hour)

	conv, err := NewMeetingConversation("retro", "user-a", "", "", due)
	require.NoError(t, err)

	assert.Equal(t, ConversationTypeMeeting, conv.Type)
	assert.Contains(t, conv.ID, MeetingIDPrefix)
	require.NotNil(t, conv.DueDate)
	assert.Equal(t, due.UTC(), *conv.DueDate)
}

func TestNewMeetingConversation_RequiresDueDate(t *testing.T) {
	_, err := NewMeetingConversation("retro", "user-a", "", "", time.Time{})
	assert.Error(t, err)
}

func TestNewFriendConversation(t *testing.T) {
	conv, err := NewFriendConversation("user-a")
	require.NoError(t, err)

	assert.Equal(t, ConversationTypeFriend, conv.Type)
	assert.Contains(t, conv.ID, FriendIDPrefix)
	assert.True(t, conv.IsFriend())
	assert.Empty(t, conv.Name)
}

func TestConversationTypeValid(t *testing.T) {
	assert.True(t, ConversationTypeFriend.Valid())
	assert.True(t, ConversationTypeGroup.Valid())
	assert.True(t, ConversationTypeMeeting.Valid())
	assert.False(t, ConversationType("DIRECT").Valid())
	assert.False(t, ConversationType("").Valid())
}

func TestNewRelationship(t *testing.T) {
	conv, err := NewMeetingConversation("retro", "user-a", "", "", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rel, err := NewRelationship(conv, "user-b", RoleUser)
	require.NoError(t, err)

	assert.Equal(t, conv.ID, rel.ConversationID)
	assert.Equal(t, ConversationTypeMeeting, rel.ConversationType)
	assert.Equal(t, conv.DueDate, rel.DueDate, "due date is denormalized onto the row")
	assert.False(t, rel.IsAdmin())
	assert.False(t, rel.HasUnread())

	rel.UnreadMessages = []string{"message-1"}
	assert.True(t, rel.HasUnread())
}

func TestNewRelationship_RejectsUnknownRole(t *testing.T) {
	conv, err := NewFriendConversation("user-a")
	require.NoError(t, err)

	_, err = NewRelationship(conv, "user-b", Role("OWNER"))
	assert.Error(t, err)
}
