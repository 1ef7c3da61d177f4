package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	apperrors "converse-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// MessageRepository implements ports.MessageRepository using DynamoDB.
type MessageRepository struct {
	client        *dynamodb.Client
	tableName     string
	gsi1IndexName string
	gsi2IndexName string
	logger        *zap.Logger
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client *dynamodb.Client, tableName, gsi1, gsi2 string, logger *zap.Logger) ports.MessageRepository {
	return &MessageRepository{
		client:        client,
		tableName:     tableName,
		gsi1IndexName: gsi1,
		gsi2IndexName: gsi2,
		logger:        logger,
	}
}

// GetByID looks a message up through GSI1; the table key embeds the creation
// timestamp, which callers holding only the id do not know.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*entities.Message, error) {
	raw, err := r.getRawByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var item messageItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal message", err)
	}
	message, err := item.toEntity()
	if err != nil {
		return nil, apperrors.NewDatabaseError("decode message", err)
	}
	return message, nil
}

func (r *MessageRepository) getRawByID(ctx context.Context, id string) (map[string]types.AttributeValue, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi1IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: id},
			":sk": &types.AttributeValueMemberS{Value: entityTypeMessage},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		r.logger.Error("Failed to query message by id", zap.Error(err), zap.String("messageID", id))
		return nil, apperrors.NewDatabaseError("query message", err)
	}
	if len(result.Items) == 0 {
		return nil, apperrors.NewNotFoundError("message")
	}
	return result.Items[0], nil
}

// GetByConversationID lists root messages newest first. Replies live in the
// same partition but are filtered out; they surface through GetReplies and
// the parent's ReplyCount.
func (r *MessageRepository) GetByConversationID(ctx context.Context, conversationID string, limit int, exclusiveStartKey string) ([]*entities.Message, string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:       aws.String("attribute_not_exists(ReplyTo)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: conversationID},
			":sk": &types.AttributeValueMemberS{Value: messageSKPrefix},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}
	startKey, err := decodeCursor(exclusiveStartKey)
	if err != nil {
		return nil, "", apperrors.NewValidationError("invalid exclusiveStartKey").WithCause(err)
	}
	input.ExclusiveStartKey = startKey

	result, err := r.client.Query(ctx, input)
	if err != nil {
		r.logger.Error("Failed to query messages",
			zap.Error(err),
			zap.String("conversationID", conversationID),
		)
		return nil, "", apperrors.NewDatabaseError("query messages", err)
	}

	messages := make([]*entities.Message, 0, len(result.Items))
	for _, raw := range result.Items {
		var item messageItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal message item", zap.Error(err))
			continue
		}
		message, err := item.toEntity()
		if err != nil {
			r.logger.Warn("Failed to decode message item", zap.Error(err))
			continue
		}
		messages = append(messages, message)
	}

	cursor, err := encodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", apperrors.NewDatabaseError("encode pagination cursor", err)
	}
	return messages, cursor, nil
}

// GetReplies lists the replies to a root message, oldest first.
func (r *MessageRepository) GetReplies(ctx context.Context, conversationID, messageID string) ([]*entities.Message, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.gsi2IndexName),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: repliesGSIPrefix + messageID},
		},
	})
	if err != nil {
		r.logger.Error("Failed to query replies",
			zap.Error(err),
			zap.String("messageID", messageID),
		)
		return nil, apperrors.NewDatabaseError("query replies", err)
	}

	replies := make([]*entities.Message, 0, len(result.Items))
	for _, raw := range result.Items {
		var item messageItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal reply item", zap.Error(err))
			continue
		}
		reply, err := item.toEntity()
		if err != nil {
			r.logger.Warn("Failed to decode reply item", zap.Error(err))
			continue
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// UpdateSeenAt sets or clears one member's entry in the SeenAt map. Last
// write wins on the single map entry; concurrent members touch disjoint keys.
func (r *MessageRepository) UpdateSeenAt(ctx context.Context, messageID, userID string, seenAt *time.Time) error {
	key, err := r.tableKeyForMessage(ctx, messageID)
	if err != nil {
		return err
	}

	var value types.AttributeValue = &types.AttributeValueMemberNULL{Value: true}
	if seenAt != nil {
		value = &types.AttributeValueMemberS{Value: formatSortTime(*seenAt)}
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 key,
		UpdateExpression:    aws.String("SET SeenAt.#u = :ts"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#u": userID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts": value,
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError("message").WithCause(err)
		}
		r.logger.Error("Failed to update seen state",
			zap.Error(err),
			zap.String("messageID", messageID),
			zap.String("userID", userID),
		)
		return apperrors.NewDatabaseError("update seen state", err)
	}
	return nil
}

// ApplyReactionChanges applies add/remove mutations for one user against the
// nested reaction sets. DELETE drops the nested attribute when its set
// empties, so no reaction key ever holds an empty set.
func (r *MessageRepository) ApplyReactionChanges(ctx context.Context, messageID, userID string, changes []entities.ReactionChange) error {
	if len(changes) == 0 {
		return nil
	}
	key, err := r.tableKeyForMessage(ctx, messageID)
	if err != nil {
		return err
	}

	// One UpdateItem per change: ADD and DELETE cannot name the same
	// document path twice in a single expression.
	for i, change := range changes {
		verb := "ADD"
		if change.Action == entities.ReactionActionRemove {
			verb = "DELETE"
		}
		_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(r.tableName),
			Key:                 key,
			UpdateExpression:    aws.String(fmt.Sprintf("%s Reactions.#r :ids", verb)),
			ConditionExpression: aws.String("attribute_exists(PK)"),
			ExpressionAttributeNames: map[string]string{
				"#r": change.Reaction,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ids": &types.AttributeValueMemberSS{Value: []string{userID}},
			},
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return apperrors.NewNotFoundError("message").WithCause(err)
			}
			r.logger.Error("Failed to apply reaction change",
				zap.Error(err),
				zap.String("messageID", messageID),
				zap.String("userID", userID),
				zap.String("reaction", change.Reaction),
				zap.Int("changeIndex", i),
			)
			return apperrors.NewDatabaseError("apply reaction change", err)
		}
	}
	return nil
}

// CreatePendingMessage writes the upload placeholder, conditional on absence.
func (r *MessageRepository) CreatePendingMessage(ctx context.Context, pending *entities.PendingMessage) error {
	av, err := attributevalue.MarshalMap(newPendingMessageItem(pending))
	if err != nil {
		return apperrors.NewDatabaseError("marshal pending message", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewConflictError("pending message already exists").WithCause(err)
		}
		r.logger.Error("Failed to create pending message",
			zap.Error(err),
			zap.String("pendingMessageID", pending.ID),
		)
		return apperrors.NewDatabaseError("create pending message", err)
	}

	r.logger.Debug("Pending message created",
		zap.String("pendingMessageID", pending.ID),
		zap.String("conversationID", pending.ConversationID),
	)
	return nil
}

// GetPendingMessage retrieves a pending message by id.
func (r *MessageRepository) GetPendingMessage(ctx context.Context, id string) (*entities.PendingMessage, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       selfKey(id),
	})
	if err != nil {
		r.logger.Error("Failed to get pending message", zap.Error(err), zap.String("pendingMessageID", id))
		return nil, apperrors.NewDatabaseError("get pending message", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("pending message")
	}

	var item pendingMessageItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal pending message", err)
	}
	pending, err := item.toEntity()
	if err != nil {
		return nil, apperrors.NewDatabaseError("decode pending message", err)
	}
	return pending, nil
}

// UpdatePendingMessageMimeType rewrites the placeholder's mime type in place.
// A transcoding callback that lands after conversion finds no row and gets
// not-found, which the processor treats as success.
func (r *MessageRepository) UpdatePendingMessageMimeType(ctx context.Context, id, mimeType string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 selfKey(id),
		UpdateExpression:    aws.String("SET MimeType = :mt"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":mt": &types.AttributeValueMemberS{Value: mimeType},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError("pending message").WithCause(err)
		}
		r.logger.Error("Failed to update pending message mime type",
			zap.Error(err),
			zap.String("pendingMessageID", id),
			zap.String("mimeType", mimeType),
		)
		return apperrors.NewDatabaseError("update pending message mime type", err)
	}
	return nil
}

// ConvertPendingToMessage atomically creates the message and deletes the
// pending row. The two condition expressions make the pair mutually
// exclusive: a duplicate transcription callback finds the pending row gone
// and fails the whole transaction with not-found.
func (r *MessageRepository) ConvertPendingToMessage(ctx context.Context, pendingID string, message *entities.Message) error {
	av, err := marshalMessageItem(newMessageItem(message))
	if err != nil {
		return apperrors.NewDatabaseError("marshal message", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.tableName),
					Key:                 selfKey(pendingID),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return apperrors.NewNotFoundError("pending message").WithCause(err)
		}
		r.logger.Error("Failed to convert pending message",
			zap.Error(err),
			zap.String("pendingMessageID", pendingID),
			zap.String("messageID", message.ID),
		)
		return apperrors.NewDatabaseError("convert pending message", err)
	}

	r.logger.Info("Pending message converted",
		zap.String("pendingMessageID", pendingID),
		zap.String("messageID", message.ID),
		zap.String("conversationID", message.ConversationID),
	)
	return nil
}

// CreateReplyWithCountIncrement writes the reply, deletes its pending row and
// increments the parent's ReplyCount in one transaction, so the denormalized
// counter cannot drift from the reply rows.
func (r *MessageRepository) CreateReplyWithCountIncrement(ctx context.Context, pendingID string, reply *entities.Message) error {
	if reply.ReplyTo == "" {
		return apperrors.NewValidationError("reply has no parent message")
	}
	parentKey, err := r.tableKeyForMessage(ctx, reply.ReplyTo)
	if err != nil {
		return err
	}
	av, err := marshalMessageItem(newMessageItem(reply))
	if err != nil {
		return apperrors.NewDatabaseError("marshal reply", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.tableName),
					Key:                 selfKey(pendingID),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Update: &types.Update{
					TableName:           aws.String(r.tableName),
					Key:                 parentKey,
					UpdateExpression:    aws.String("ADD ReplyCount :one"),
					ConditionExpression: aws.String("attribute_exists(PK)"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":one": &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return apperrors.NewNotFoundError("pending message").WithCause(err)
		}
		r.logger.Error("Failed to create reply",
			zap.Error(err),
			zap.String("pendingMessageID", pendingID),
			zap.String("replyID", reply.ID),
			zap.String("parentMessageID", reply.ReplyTo),
		)
		return apperrors.NewDatabaseError("create reply", err)
	}

	r.logger.Info("Reply created",
		zap.String("replyID", reply.ID),
		zap.String("parentMessageID", reply.ReplyTo),
	)
	return nil
}

// tableKeyForMessage resolves a message id to its table key via GSI1.
func (r *MessageRepository) tableKeyForMessage(ctx context.Context, messageID string) (map[string]types.AttributeValue, error) {
	raw, err := r.getRawByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	pk, okPK := raw["PK"].(*types.AttributeValueMemberS)
	sk, okSK := raw["SK"].(*types.AttributeValueMemberS)
	if !okPK || !okSK {
		return nil, apperrors.NewDatabaseError("resolve message key", fmt.Errorf("message %s has malformed key attributes", messageID))
	}
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk.Value},
		"SK": &types.AttributeValueMemberS{Value: sk.Value},
	}, nil
}
