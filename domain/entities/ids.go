package entities

import (
	"strings"

	"github.com/google/uuid"
)

// Entity id prefixes. Every id in the table is type-prefixed so that a raw id
// is self-describing in logs and stream records.
const (
	GroupIDPrefix          = "group-"
	MeetingIDPrefix        = "meeting-"
	FriendIDPrefix         = "friend-"
	UserIDPrefix           = "user-"
	OrganizationIDPrefix   = "organization-"
	MessageIDPrefix        = "message-"
	ReplyIDPrefix          = "reply-"
	PendingMessageIDPrefix = "pending-message-"
)

// NewGroupID mints a group conversation id
func NewGroupID() string {
	return GroupIDPrefix + uuid.NewString()
}

// NewMeetingID mints a meeting conversation id
func NewMeetingID() string {
	return MeetingIDPrefix + uuid.NewString()
}

// NewFriendConversationID mints a friend conversation id
func NewFriendConversationID() string {
	return FriendIDPrefix + uuid.NewString()
}

// NewUserID mints a user id
func NewUserID() string {
	return UserIDPrefix + uuid.NewString()
}

// NewOrganizationID mints an organization id
func NewOrganizationID() string {
	return OrganizationIDPrefix + uuid.NewString()
}

// NewMessageID mints a root message id
func NewMessageID() string {
	return MessageIDPrefix + uuid.NewString()
}

// NewReplyID mints a threaded reply id
func NewReplyID() string {
	return ReplyIDPrefix + uuid.NewString()
}

// NewPendingMessageID mints a pending-message id. The uuid suffix is carried
// over to the Message once transcription completes.
func NewPendingMessageID() string {
	return PendingMessageIDPrefix + uuid.NewString()
}

// PendingMessageID derives the pending-message id that shares a suffix with
// the given message id. The shared suffix is what makes PendingMessage and
// Message mutually exclusive for one upload.
func PendingMessageID(messageID string) string {
	if strings.HasPrefix(messageID, ReplyIDPrefix) {
		return PendingMessageIDPrefix + strings.TrimPrefix(messageID, ReplyIDPrefix)
	}
	return PendingMessageIDPrefix + strings.TrimPrefix(messageID, MessageIDPrefix)
}

// MessageIDFromPending recovers the message id a pending-message id stands in
// for. Replies keep their own prefix via the reply flag.
func MessageIDFromPending(pendingMessageID string, reply bool) string {
	suffix := strings.TrimPrefix(pendingMessageID, PendingMessageIDPrefix)
	if reply {
		return ReplyIDPrefix + suffix
	}
	return MessageIDPrefix + suffix
}
