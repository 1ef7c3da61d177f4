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

// UserRepository implements ports.UserRepository using DynamoDB.
type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Create writes the user row and every claimed unique-property row in one
// TransactWriteItems, each conditional on absence. A taken email/username/
// phone cancels the whole transaction, so no partial state persists.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	userAV, err := attributevalue.MarshalMap(newUserItem(user))
	if err != nil {
		return apperrors.NewDatabaseError("marshal user", err)
	}

	props := user.UniqueProperties()
	transactItems := make([]types.TransactWriteItem, 0, len(props)+1)
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                userAV,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	})
	for _, prop := range props {
		propAV, err := attributevalue.MarshalMap(newUniquePropertyItem(prop))
		if err != nil {
			return apperrors.NewDatabaseError("marshal unique property", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                propAV,
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
			return apperrors.NewConflictError("email, username or phone already in use").WithCause(err)
		}
		r.logger.Error("Failed to create user", zap.Error(err), zap.String("userID", user.ID))
		return apperrors.NewDatabaseError("create user", err)
	}

	r.logger.Info("User created",
		zap.String("userID", user.ID),
		zap.Int("uniqueProperties", len(props)),
	)
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       selfKey(id),
	})
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err), zap.String("userID", id))
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("user")
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal user", err)
	}
	user, err := item.toEntity()
	if err != nil {
		return nil, apperrors.NewDatabaseError("decode user", err)
	}
	return user, nil
}

// GetByIDs batch-retrieves users, skipping absent ids.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	users := make([]*entities.User, 0, len(ids))

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
			r.logger.Error("Failed to batch get users", zap.Error(err), zap.Int("count", len(keys)))
			return nil, apperrors.NewDatabaseError("batch get users", err)
		}

		for _, raw := range result.Responses[r.tableName] {
			var item userItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal user item", zap.Error(err))
				continue
			}
			user, err := item.toEntity()
			if err != nil {
				r.logger.Warn("Failed to decode user item", zap.Error(err))
				continue
			}
			users = append(users, user)
		}
	}

	return users, nil
}

// GetByUniqueProperty resolves a (kind, value) pair to its user via the
// unique-property side row.
func (r *UserRepository) GetByUniqueProperty(ctx context.Context, kind entities.UniquePropertyKind, value string) (*entities.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       selfKey(uniquePropertyPK(kind, value)),
	})
	if err != nil {
		r.logger.Error("Failed to get unique property",
			zap.Error(err),
			zap.String("kind", string(kind)),
		)
		return nil, apperrors.NewDatabaseError("get unique property", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("user")
	}

	var item uniquePropertyItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal unique property", err)
	}
	return r.GetByID(ctx, item.UserID)
}
