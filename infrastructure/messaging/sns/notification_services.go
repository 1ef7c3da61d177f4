package sns

import (
	"context"

	"converse-backend/application/ports"
	"converse-backend/infrastructure/config"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// NotificationPublisher implements ports.NotificationPublisher as thin typed
// wrappers over the shared Publisher, one topic per message shape.
type NotificationPublisher struct {
	publisher *Publisher
	topics    config.SNSTopics
}

// NewNotificationPublisher creates a new NotificationPublisher
func NewNotificationPublisher(client *sns.Client, topics config.SNSTopics, logger *zap.Logger) ports.NotificationPublisher {
	return &NotificationPublisher{
		publisher: NewPublisher(client, logger),
		topics:    topics,
	}
}

func (n *NotificationPublisher) SendGroupCreated(ctx context.Context, msg ports.GroupCreatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.GroupCreated, msg)
}

func (n *NotificationPublisher) SendMeetingCreated(ctx context.Context, msg ports.MeetingCreatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.MeetingCreated, msg)
}

func (n *NotificationPublisher) SendUserAddedToGroup(ctx context.Context, msg ports.UserAddedToGroupMessage) error {
	return n.publisher.Publish(ctx, n.topics.UserAddedToGroup, msg)
}

func (n *NotificationPublisher) SendUserRemovedFromGroup(ctx context.Context, msg ports.UserRemovedFromGroupMessage) error {
	return n.publisher.Publish(ctx, n.topics.UserRemovedFromGroup, msg)
}

func (n *NotificationPublisher) SendUserAddedAsFriend(ctx context.Context, msg ports.UserAddedAsFriendMessage) error {
	return n.publisher.Publish(ctx, n.topics.UserAddedAsFriend, msg)
}

func (n *NotificationPublisher) SendUserRemovedAsFriend(ctx context.Context, msg ports.UserRemovedAsFriendMessage) error {
	return n.publisher.Publish(ctx, n.topics.UserRemovedAsFriend, msg)
}

func (n *NotificationPublisher) SendFriendMessageCreated(ctx context.Context, msg ports.FriendMessageCreatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.FriendMessageCreated, msg)
}

func (n *NotificationPublisher) SendGroupMessageCreated(ctx context.Context, msg ports.GroupMessageCreatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.GroupMessageCreated, msg)
}

func (n *NotificationPublisher) SendMeetingMessageCreated(ctx context.Context, msg ports.MeetingMessageCreatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.MeetingMessageCreated, msg)
}

func (n *NotificationPublisher) SendFriendMessageUpdated(ctx context.Context, msg ports.FriendMessageUpdatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.FriendMessageUpdated, msg)
}

func (n *NotificationPublisher) SendGroupMessageUpdated(ctx context.Context, msg ports.GroupMessageUpdatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.GroupMessageUpdated, msg)
}

func (n *NotificationPublisher) SendMeetingMessageUpdated(ctx context.Context, msg ports.MeetingMessageUpdatedMessage) error {
	return n.publisher.Publish(ctx, n.topics.MeetingMessageUpdated, msg)
}
