package dynamodb

import (
	"context"
	"errors"
	"time"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	apperrors "converse-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// RelationshipRepository implements ports.RelationshipRepository using
// DynamoDB. All unread-state mutations go through ADD/DELETE update
// expressions on the UnreadMessages string set, so an emptied set leaves no
// attribute behind - DynamoDB cannot represent an empty set, and nothing here
// ever writes one.
type RelationshipRepository struct {
	client        *dynamodb.Client
	tableName     string
	gsi1IndexName string
	gsi2IndexName string
	gsi3IndexName string
	logger        *zap.Logger
}

// NewRelationshipRepository creates a new RelationshipRepository
func NewRelationshipRepository(client *dynamodb.Client, tableName, gsi1, gsi2, gsi3 string, logger *zap.Logger) ports.RelationshipRepository {
	return &RelationshipRepository{
		client:        client,
		tableName:     tableName,
		gsi1IndexName: gsi1,
		gsi2IndexName: gsi2,
		gsi3IndexName: gsi3,
		logger:        logger,
	}
}

// Create writes the relationship row, conditional on it not existing so a
// redelivered membership event cannot double-create.
func (r *RelationshipRepository) Create(ctx context.Context, relationship *entities.ConversationUserRelationship) error {
	av, err := attributevalue.MarshalMap(newRelationshipItem(relationship))
	if err != nil {
		return apperrors.NewDatabaseError("marshal relationship", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewConflictError("user is already a member").WithCause(err)
		}
		r.logger.Error("Failed to create relationship",
			zap.Error(err),
			zap.String("conversationID", relationship.ConversationID),
			zap.String("userID", relationship.UserID),
		)
		return apperrors.NewDatabaseError("create relationship", err)
	}

	r.logger.Debug("Relationship created",
		zap.String("conversationID", relationship.ConversationID),
		zap.String("userID", relationship.UserID),
		zap.String("role", string(relationship.Role)),
	)
	return nil
}

// Get retrieves one relationship row.
func (r *RelationshipRepository) Get(ctx context.Context, conversationID, userID string) (*entities.ConversationUserRelationship, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       relationshipKey(conversationID, userID),
	})
	if err != nil {
		r.logger.Error("Failed to get relationship",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.String("userID", userID),
		)
		return nil, apperrors.NewDatabaseError("get relationship", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("relationship")
	}

	var item relationshipItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal relationship", err)
	}
	relationship, err := item.toEntity()
	if err != nil {
		return nil, apperrors.NewDatabaseError("decode relationship", err)
	}
	return relationship, nil
}

// GetByConversationID returns every member's relationship row for a
// conversation. Membership rows share the conversation partition with
// messages; the user id sort-key prefix separates them.
func (r *RelationshipRepository) GetByConversationID(ctx context.Context, conversationID string) ([]*entities.ConversationUserRelationship, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: conversationID},
			":sk": &types.AttributeValueMemberS{Value: entities.UserIDPrefix},
		},
	})
	if err != nil {
		r.logger.Error("Failed to query conversation members",
			zap.Error(err),
			zap.String("conversationID", conversationID),
		)
		return nil, apperrors.NewDatabaseError("query conversation members", err)
	}

	relationships := make([]*entities.ConversationUserRelationship, 0, len(result.Items))
	for _, raw := range result.Items {
		var item relationshipItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal relationship item", zap.Error(err))
			continue
		}
		relationship, err := item.toEntity()
		if err != nil {
			r.logger.Warn("Failed to decode relationship item", zap.Error(err))
			continue
		}
		relationships = append(relationships, relationship)
	}
	return relationships, nil
}

// GetByUserID pages a user's relationship rows. The query's fields pick the
// index: GSI3 for meetings by due date, GSI2 for a type filter, GSI1 for
// everything by recency.
func (r *RelationshipRepository) GetByUserID(ctx context.Context, query ports.RelationshipQuery) (*ports.RelationshipPage, error) {
	input := &dynamodb.QueryInput{
		TableName:        aws.String(r.tableName),
		ScanIndexForward: aws.Bool(false), // most recent first
	}

	var keyCond expression.KeyConditionBuilder
	switch {
	case query.ByDueDate:
		input.IndexName = aws.String(r.gsi3IndexName)
		input.ScanIndexForward = aws.Bool(true) // soonest due first
		keyCond = expression.Key("GSI3PK").Equal(expression.Value(gsi2PK(query.UserID, entities.ConversationTypeMeeting)))
	case query.Type != "":
		input.IndexName = aws.String(r.gsi2IndexName)
		keyCond = expression.Key("GSI2PK").Equal(expression.Value(gsi2PK(query.UserID, query.Type)))
	default:
		input.IndexName = aws.String(r.gsi1IndexName)
		keyCond = expression.Key("GSI1PK").Equal(expression.Value(query.UserID))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if query.Unread {
		// An emptied unread set leaves no attribute behind, so presence of
		// the attribute means unread
		builder = builder.WithFilter(expression.AttributeExists(expression.Name("UnreadMessages")))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build relationship query", err)
	}
	input.KeyConditionExpression = expr.KeyCondition()
	input.FilterExpression = expr.Filter()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()

	if query.Limit > 0 {
		input.Limit = aws.Int32(int32(query.Limit))
	}
	startKey, err := decodeCursor(query.ExclusiveStartKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid exclusiveStartKey").WithCause(err)
	}
	input.ExclusiveStartKey = startKey

	result, err := r.client.Query(ctx, input)
	if err != nil {
		r.logger.Error("Failed to query relationships by user",
			zap.Error(err),
			zap.String("userID", query.UserID),
			zap.String("type", string(query.Type)),
		)
		return nil, apperrors.NewDatabaseError("query relationships by user", err)
	}

	page := &ports.RelationshipPage{
		Items: make([]*entities.ConversationUserRelationship, 0, len(result.Items)),
	}
	for _, raw := range result.Items {
		var item relationshipItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal relationship item", zap.Error(err))
			continue
		}
		relationship, err := item.toEntity()
		if err != nil {
			r.logger.Warn("Failed to decode relationship item", zap.Error(err))
			continue
		}
		page.Items = append(page.Items, relationship)
	}

	page.LastEvaluatedKey, err = encodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return nil, apperrors.NewDatabaseError("encode pagination cursor", err)
	}
	return page, nil
}

// Delete removes one relationship row.
func (r *RelationshipRepository) Delete(ctx context.Context, conversationID, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       relationshipKey(conversationID, userID),
	})
	if err != nil {
		r.logger.Error("Failed to delete relationship",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.String("userID", userID),
		)
		return apperrors.NewDatabaseError("delete relationship", err)
	}

	r.logger.Debug("Relationship deleted",
		zap.String("conversationID", conversationID),
		zap.String("userID", userID),
	)
	return nil
}

// AddUnreadMessage adds one message id to the member's unread set and bumps
// the recency sort keys so the conversation resurfaces for that member.
func (r *RelationshipRepository) AddUnreadMessage(ctx context.Context, conversationID, userID, messageID string) error {
	now := formatSortTime(time.Now())
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 relationshipKey(conversationID, userID),
		UpdateExpression:    aws.String("ADD UnreadMessages :ids SET UpdatedAt = :now, GSI1SK = :now, GSI2SK = :now, RecentMessageID = :mid"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ids": &types.AttributeValueMemberSS{Value: []string{messageID}},
			":now": &types.AttributeValueMemberS{Value: now},
			":mid": &types.AttributeValueMemberS{Value: messageID},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Member left between the message write and this update
			return apperrors.NewNotFoundError("relationship").WithCause(err)
		}
		r.logger.Error("Failed to add unread message",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.String("userID", userID),
			zap.String("messageID", messageID),
		)
		return apperrors.NewDatabaseError("add unread message", err)
	}
	return nil
}

// RemoveUnreadMessages deletes ids from the unread set. Removing ids that are
// not present is a no-op; DynamoDB drops the attribute when the set empties.
func (r *RelationshipRepository) RemoveUnreadMessages(ctx context.Context, conversationID, userID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 relationshipKey(conversationID, userID),
		UpdateExpression:    aws.String("DELETE UnreadMessages :ids"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ids": &types.AttributeValueMemberSS{Value: messageIDs},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError("relationship").WithCause(err)
		}
		r.logger.Error("Failed to remove unread messages",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.String("userID", userID),
			zap.Int("count", len(messageIDs)),
		)
		return apperrors.NewDatabaseError("remove unread messages", err)
	}
	return nil
}

// AddUnreadMessages re-adds ids to the unread set (mark unseen).
func (r *RelationshipRepository) AddUnreadMessages(ctx context.Context, conversationID, userID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 relationshipKey(conversationID, userID),
		UpdateExpression:    aws.String("ADD UnreadMessages :ids"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ids": &types.AttributeValueMemberSS{Value: messageIDs},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError("relationship").WithCause(err)
		}
		r.logger.Error("Failed to re-add unread messages",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.String("userID", userID),
			zap.Int("count", len(messageIDs)),
		)
		return apperrors.NewDatabaseError("add unread messages", err)
	}
	return nil
}

// Touch bumps UpdatedAt and the GSI sort keys, recording the most recent
// message id when supplied. Used for the sender's own row on message
// creation: the conversation resurfaces without an unread entry.
func (r *RelationshipRepository) Touch(ctx context.Context, conversationID, userID, recentMessageID string, at time.Time) error {
	ts := formatSortTime(at)
	update := "SET UpdatedAt = :now, GSI1SK = :now, GSI2SK = :now"
	values := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberS{Value: ts},
	}
	if recentMessageID != "" {
		update += ", RecentMessageID = :mid"
		values[":mid"] = &types.AttributeValueMemberS{Value: recentMessageID}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       relationshipKey(conversationID, userID),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError("relationship").WithCause(err)
		}
		r.logger.Error("Failed to touch relationship",
			zap.Error(err),
			zap.String("conversationID", conversationID),
			zap.String("userID", userID),
		)
		return apperrors.NewDatabaseError("touch relationship", err)
	}
	return nil
}
