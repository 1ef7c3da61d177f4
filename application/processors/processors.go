package processors

import (
	"context"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"

	"github.com/aws/aws-lambda-go/events"
)

// StreamRecordProcessor handles one kind of table-stream record. Support
// checks are total: they inspect the record and return false on anything
// unexpected, never panicking, so unrecognized records skip quietly.
// ProcessRecord must be safe to run twice; the stream redelivers on error.
type StreamRecordProcessor interface {
	DetermineRecordSupport(record events.DynamoDBEventRecord) bool
	ProcessRecord(ctx context.Context, record events.DynamoDBEventRecord) error
}

// SNSRecordProcessor handles one kind of inbound SNS record under the same
// contract: total support checks, idempotent processing.
type SNSRecordProcessor interface {
	DetermineRecordSupport(record events.SNSEventRecord) bool
	ProcessRecord(ctx context.Context, record events.SNSEventRecord) error
}

const (
	eventNameInsert = "INSERT"
	eventNameModify = "MODIFY"
	eventNameRemove = "REMOVE"
)

// Attribute names as they appear on stream images.
const (
	attrEntityType     = "EntityType"
	attrID             = "ID"
	attrType           = "Type"
	attrConversationID = "ConversationID"
	attrUserID         = "UserID"
	attrFrom           = "From"
)

// Entity type discriminants as persisted.
const (
	imageEntityConversation = "CONVERSATION"
	imageEntityRelationship = "CONVERSATION_USER_RELATIONSHIP"
	imageEntityMessage      = "MESSAGE"
)

// stringAttr reads a string attribute off a stream image, returning "" when
// the attribute is absent or not a string.
func stringAttr(image map[string]events.DynamoDBAttributeValue, name string) string {
	av, ok := image[name]
	if !ok || av.DataType() != events.DataTypeString {
		return ""
	}
	return av.String()
}

// stringSetAttr reads a string-set attribute off a stream image, returning
// nil when absent or of another type.
func stringSetAttr(image map[string]events.DynamoDBAttributeValue, name string) []string {
	av, ok := image[name]
	if !ok || av.DataType() != events.DataTypeStringSet {
		return nil
	}
	return av.StringSet()
}

// isConversationImage reports whether the image is a conversation row of the
// given type.
func isConversationImage(image map[string]events.DynamoDBAttributeValue, convType entities.ConversationType) bool {
	return stringAttr(image, attrEntityType) == imageEntityConversation &&
		stringAttr(image, attrType) == string(convType)
}

func conversationSummary(c *entities.Conversation, memberIDs []string) ports.ConversationSummary {
	return ports.ConversationSummary{
		ID:        c.ID,
		Type:      string(c.Type),
		Name:      c.Name,
		CreatedBy: c.CreatedBy,
		DueDate:   c.DueDate,
		MemberIDs: memberIDs,
	}
}

func userSummary(u *entities.User) ports.UserSummary {
	return ports.UserSummary{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Phone:    u.Phone,
		Name:     u.Name,
	}
}

func messageSummary(m *entities.Message, from ports.UserSummary) ports.MessageSummary {
	return ports.MessageSummary{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		From:           from,
		MimeType:       m.MimeType,
		Transcript:     m.Transcript,
		CreatedAt:      m.CreatedAt,
		SeenAt:         m.SeenAt,
		Reactions:      m.Reactions,
		ReplyTo:        m.ReplyTo,
		ReplyCount:     m.ReplyCount,
	}
}
