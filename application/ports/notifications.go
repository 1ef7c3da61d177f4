package ports

import (
	"context"
	"time"
)

// UserSummary is the fully resolved user shape carried on outbound
// notifications so subscribers never need a callback query.
type UserSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Name     string `json:"name,omitempty"`
}

// ConversationSummary is the resolved conversation shape on notifications.
type ConversationSummary struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Name      string     `json:"name,omitempty"`
	CreatedBy string     `json:"createdBy"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	MemberIDs []string   `json:"memberIds"`
}

// MessageSummary is the resolved message shape on notifications.
type MessageSummary struct {
	ID             string                `json:"id"`
	ConversationID string                `json:"conversationId"`
	From           UserSummary           `json:"from"`
	MimeType       string                `json:"mimeType"`
	Transcript     string                `json:"transcript,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	SeenAt         map[string]*time.Time `json:"seenAt"`
	Reactions      map[string][]string   `json:"reactions"`
	ReplyTo        string                `json:"replyTo,omitempty"`
	ReplyCount     int                   `json:"replyCount"`
}

// Outbound notification payloads, one type per topic.

type GroupCreatedMessage struct {
	Group          ConversationSummary `json:"group"`
	GroupMemberIDs []string            `json:"groupMemberIds"`
}

type MeetingCreatedMessage struct {
	Meeting          ConversationSummary `json:"meeting"`
	MeetingMemberIDs []string            `json:"meetingMemberIds"`
}

type UserAddedToGroupMessage struct {
	Group          ConversationSummary `json:"group"`
	User           UserSummary         `json:"user"`
	GroupMemberIDs []string            `json:"groupMemberIds"`
}

type UserRemovedFromGroupMessage struct {
	Group          ConversationSummary `json:"group"`
	User           UserSummary         `json:"user"`
	GroupMemberIDs []string            `json:"groupMemberIds"`
}

type UserAddedAsFriendMessage struct {
	AddingUser ConversationMember `json:"addingUser"`
	AddedUser  ConversationMember `json:"addedUser"`
}

type UserRemovedAsFriendMessage struct {
	UserID        string `json:"userId"`
	RemovedUserID string `json:"removedUserId"`
}

// ConversationMember pairs a user with the friend conversation they share.
type ConversationMember struct {
	ConversationID string      `json:"conversationId"`
	User           UserSummary `json:"user"`
}

type FriendMessageCreatedMessage struct {
	ConversationID string         `json:"conversationId"`
	To             UserSummary    `json:"to"`
	Message        MessageSummary `json:"message"`
}

type GroupMessageCreatedMessage struct {
	Group          ConversationSummary `json:"group"`
	Message        MessageSummary      `json:"message"`
	GroupMemberIDs []string            `json:"groupMemberIds"`
}

type MeetingMessageCreatedMessage struct {
	Meeting          ConversationSummary `json:"meeting"`
	Message          MessageSummary      `json:"message"`
	MeetingMemberIDs []string            `json:"meetingMemberIds"`
}

type FriendMessageUpdatedMessage struct {
	ConversationID string         `json:"conversationId"`
	To             UserSummary    `json:"to"`
	Message        MessageSummary `json:"message"`
}

type GroupMessageUpdatedMessage struct {
	Group          ConversationSummary `json:"group"`
	Message        MessageSummary      `json:"message"`
	GroupMemberIDs []string            `json:"groupMemberIds"`
}

type MeetingMessageUpdatedMessage struct {
	Meeting          ConversationSummary `json:"meeting"`
	Message          MessageSummary      `json:"message"`
	MeetingMemberIDs []string            `json:"meetingMemberIds"`
}

// NotificationPublisher is the typed outbound fan-out surface, one method per
// topic. Implementations publish and propagate transport errors unchanged;
// retries belong to the caller's redelivery substrate.
type NotificationPublisher interface {
	SendGroupCreated(ctx context.Context, msg GroupCreatedMessage) error
	SendMeetingCreated(ctx context.Context, msg MeetingCreatedMessage) error
	SendUserAddedToGroup(ctx context.Context, msg UserAddedToGroupMessage) error
	SendUserRemovedFromGroup(ctx context.Context, msg UserRemovedFromGroupMessage) error
	SendUserAddedAsFriend(ctx context.Context, msg UserAddedAsFriendMessage) error
	SendUserRemovedAsFriend(ctx context.Context, msg UserRemovedAsFriendMessage) error
	SendFriendMessageCreated(ctx context.Context, msg FriendMessageCreatedMessage) error
	SendGroupMessageCreated(ctx context.Context, msg GroupMessageCreatedMessage) error
	SendMeetingMessageCreated(ctx context.Context, msg MeetingMessageCreatedMessage) error
	SendFriendMessageUpdated(ctx context.Context, msg FriendMessageUpdatedMessage) error
	SendGroupMessageUpdated(ctx context.Context, msg GroupMessageUpdatedMessage) error
	SendMeetingMessageUpdated(ctx context.Context, msg MeetingMessageUpdatedMessage) error
}
