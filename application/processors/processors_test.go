package processors

import (
	"time"

	"converse-backend/domain/entities"

	"github.com/aws/aws-lambda-go/events"
)

// Stream record builders shared by the processor tests.

func insertRecord(image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "event-1",
		EventName: eventNameInsert,
		Change:    events.DynamoDBStreamRecord{NewImage: image},
	}
}

func modifyRecord(image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "event-1",
		EventName: eventNameModify,
		Change:    events.DynamoDBStreamRecord{NewImage: image},
	}
}

func removeRecord(image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "event-1",
		EventName: eventNameRemove,
		Change:    events.DynamoDBStreamRecord{OldImage: image},
	}
}

func conversationImage(id string, convType entities.ConversationType, createdBy string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		attrEntityType: events.NewStringAttribute(imageEntityConversation),
		attrType:       events.NewStringAttribute(string(convType)),
		attrID:         events.NewStringAttribute(id),
		"CreatedBy":    events.NewStringAttribute(createdBy),
	}
}

func membershipImage(conversationID, userID string, convType entities.ConversationType) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		attrEntityType:     events.NewStringAttribute(imageEntityRelationship),
		"ConversationType": events.NewStringAttribute(string(convType)),
		attrConversationID: events.NewStringAttribute(conversationID),
		attrUserID:         events.NewStringAttribute(userID),
	}
}

func messageImage(id, conversationID, from string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		attrEntityType:     events.NewStringAttribute(imageEntityMessage),
		attrID:             events.NewStringAttribute(id),
		attrConversationID: events.NewStringAttribute(conversationID),
		attrFrom:           events.NewStringAttribute(from),
	}
}

func snsRecord(body string) events.SNSEventRecord {
	return events.SNSEventRecord{
		SNS: events.SNSEntity{
			MessageID: "sns-1",
			TopicArn:  "arn:aws:sns:us-east-1:000000000000:topic",
			Message:   body,
		},
	}
}

func groupEntity(id, createdBy string) *entities.Conversation {
	return &entities.Conversation{
		ID:        id,
		Type:      entities.ConversationTypeGroup,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Name:      "a group",
	}
}

func meetingEntity(id, createdBy string, dueDate time.Time) *entities.Conversation {
	return &entities.Conversation{
		ID:        id,
		Type:      entities.ConversationTypeMeeting,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Name:      "a meeting",
		DueDate:   &dueDate,
	}
}

func friendEntity(id, createdBy string) *entities.Conversation {
	return &entities.Conversation{
		ID:        id,
		Type:      entities.ConversationTypeFriend,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
}

func memberRow(conversationID, userID string, convType entities.ConversationType) *entities.ConversationUserRelationship {
	return &entities.ConversationUserRelationship{
		ConversationID:   conversationID,
		UserID:           userID,
		ConversationType: convType,
		Role:             entities.RoleUser,
		UpdatedAt:        time.Now().UTC(),
	}
}
