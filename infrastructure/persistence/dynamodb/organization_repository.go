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

// OrganizationRepository implements ports.OrganizationRepository using DynamoDB.
type OrganizationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.OrganizationRepository {
	return &OrganizationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Create writes the organization row, conditional on absence.
func (r *OrganizationRepository) Create(ctx context.Context, organization *entities.Organization) error {
	av, err := attributevalue.MarshalMap(newOrganizationItem(organization))
	if err != nil {
		return apperrors.NewDatabaseError("marshal organization", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewConflictError("organization already exists").WithCause(err)
		}
		r.logger.Error("Failed to create organization", zap.Error(err), zap.String("organizationID", organization.ID))
		return apperrors.NewDatabaseError("create organization", err)
	}

	r.logger.Info("Organization created", zap.String("organizationID", organization.ID))
	return nil
}

// GetByID retrieves an organization by id.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*entities.Organization, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       selfKey(id),
	})
	if err != nil {
		r.logger.Error("Failed to get organization", zap.Error(err), zap.String("organizationID", id))
		return nil, apperrors.NewDatabaseError("get organization", err)
	}
	if result.Item == nil {
		return nil, apperrors.NewNotFoundError("organization")
	}

	var item organizationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal organization", err)
	}
	organization, err := item.toEntity()
	if err != nil {
		return nil, apperrors.NewDatabaseError("decode organization", err)
	}
	return organization, nil
}

// UpdateBillingPlan rewrites the plan attribute. Last write wins; billing
// callbacks are ordered by the provider.
func (r *OrganizationRepository) UpdateBillingPlan(ctx context.Context, id string, plan entities.BillingPlan) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 selfKey(id),
		UpdateExpression:    aws.String("SET BillingPlan = :plan"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":plan": &types.AttributeValueMemberS{Value: string(plan)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperrors.NewNotFoundError("organization").WithCause(err)
		}
		r.logger.Error("Failed to update billing plan",
			zap.Error(err),
			zap.String("organizationID", id),
			zap.String("plan", string(plan)),
		)
		return apperrors.NewDatabaseError("update billing plan", err)
	}

	r.logger.Info("Billing plan updated",
		zap.String("organizationID", id),
		zap.String("plan", string(plan)),
	)
	return nil
}
