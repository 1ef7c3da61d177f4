package dynamodb

import (
	"context"
	"errors"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	apperrors "converse-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ConversationRepository implements ports.ConversationRepository using DynamoDB
type ConversationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ConversationRepository {
	return &ConversationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Create writes the conversation row, conditional on it not existing.
func (r *ConversationRepository) Create(ctx context.Context, conversation *entities.Conversation) error {
	av, err := attributevalue.MarshalMap(newConversationItem(conversation))
	if err != nil {
		return apperrors.NewDatabaseError("marshal conversation", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewConflictError("conversation already exists").WithCause(err)
		}
		r.logger.Error("Failed to save conversation",
			zap.Error(err),
			zap.String("conversationID", conversation.ID),
		)
		return apperrors.NewDatabaseError("create conversation", err)
	}

	r.logger.Debug("Conversation created",
		zap.String("conversationID", conversation.ID),
		zap.String("type", string(conversation.Type)),
	)
	return nil
}

// GetByID retrieves a conversation by id.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       selfKey(id),
	})
	if err != nil {
		r.logger.Error("Failed to get conversation", zap.Error(err), zap.String("conversationID", id))
		return nil, apperrors.NewDatabaseError("get conversation", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("conversation")
	}

	var item conversationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal conversation", err)
	}
	conversation, err := item.toEntity()
	if err != nil {
		return nil, apperrors.NewDatabaseError("decode conversation", err)
	}
	return conversation, nil
}

// GetByIDs batch-retrieves conversations. Absent ids are skipped, not errors;
// the caller decides whether partial resolution matters.
func (r *ConversationRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Conversation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conversations := make([]*entities.Conversation, 0, len(ids))

	// BatchGetItem caps at 100 keys per call
	const batchSize = 100
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, selfKey(id))
		}

		result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			r.logger.Error("Failed to batch get conversations", zap.Error(err), zap.Int("count", len(keys)))
			return nil, apperrors.NewDatabaseError("batch get conversations", err)
		}

		for _, raw := range result.Responses[r.tableName] {
			var item conversationItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal conversation item", zap.Error(err))
				continue
			}
			conversation, err := item.toEntity()
			if err != nil {
				r.logger.Warn("Failed to decode conversation item", zap.Error(err))
				continue
			}
			conversations = append(conversations, conversation)
		}
	}

	return conversations, nil
}

// Delete removes a conversation row.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       selfKey(id),
	})
	if err != nil {
		r.logger.Error("Failed to delete conversation", zap.Error(err), zap.String("conversationID", id))
		return apperrors.NewDatabaseError("delete conversation", err)
	}

	r.logger.Debug("Conversation deleted", zap.String("conversationID", id))
	return nil
}

// CreateWithMembers writes the conversation and its initial relationship rows
// in one TransactWriteItems so a failure cannot leave an orphaned
// conversation without members.
func (r *ConversationRepository) CreateWithMembers(ctx context.Context, conversation *entities.Conversation, relationships []*entities.ConversationUserRelationship) error {
	conversationAV, err := attributevalue.MarshalMap(newConversationItem(conversation))
	if err != nil {
		return apperrors.NewDatabaseError("marshal conversation", err)
	}

	// Snapshot the founding membership onto the root row. Relationship rows
	// stay authoritative; the snapshot lets stream consumers of a root
	// removal recover the parties after the member rows are gone.
	if len(relationships) > 0 {
		memberIDs := make([]string, 0, len(relationships))
		for _, relationship := range relationships {
			memberIDs = append(memberIDs, relationship.UserID)
		}
		conversationAV["InitialMemberIDs"] = &types.AttributeValueMemberSS{Value: memberIDs}
	}

	transactItems := make([]types.TransactWriteItem, 0, len(relationships)+1)
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                conversationAV,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	})
	for _, relationship := range relationships {
		relationshipAV, err := attributevalue.MarshalMap(newRelationshipItem(relationship))
		if err != nil {
			return apperrors.NewDatabaseError("marshal relationship", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                relationshipAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return apperrors.NewConflictError("conversation or membership already exists").WithCause(err)
		}
		r.logger.Error("Failed to create conversation with members",
			zap.Error(err),
			zap.String("conversationID", conversation.ID),
			zap.Int("memberCount", len(relationships)),
		)
		return apperrors.NewDatabaseError("create conversation with members", err)
	}

	r.logger.Info("Conversation created",
		zap.String("conversationID", conversation.ID),
		zap.String("type", string(conversation.Type)),
		zap.Int("memberCount", len(relationships)),
	)
	return nil
}

// DeleteWithMembers removes the conversation and the given relationship rows
// in one TransactWriteItems. Used for friend teardown, where the conversation
// has no existence once severed.
func (r *ConversationRepository) DeleteWithMembers(ctx context.Context, conversationID string, userIDs []string) error {
	transactItems := make([]types.TransactWriteItem, 0, len(userIDs)+1)
	transactItems = append(transactItems, types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key:       selfKey(conversationID),
		},
	})
	for _, userID := range userIDs {
		transactItems = append(transactItems, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       relationshipKey(conversationID, userID),
			},
		})
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		r.logger.Error("Failed to delete conversation with members",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.Int("memberCount", len(userIDs)),
		)
		return apperrors.NewDatabaseError("delete conversation with members", err)
	}

	r.logger.Info("Conversation deleted",
		zap.String("conversationID", conversationID),
		zap.Int("memberCount", len(userIDs)),
	)
	return nil
}

// selfKey builds the key for entities stored with PK = SK = id.
func selfKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: id},
		"SK": &types.AttributeValueMemberS{Value: id},
	}
}

// relationshipKey builds the key for a (conversation, user) row.
func relationshipKey(conversationID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: conversationID},
		"SK": &types.AttributeValueMemberS{Value: userID},
	}
}
