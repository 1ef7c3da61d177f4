package di

import (
	"context"
	"fmt"
	"time"

	"converse-backend/application/mediators"
	"converse-backend/application/ports"
	"converse-backend/application/processors"
	"converse-backend/application/services"
	"converse-backend/infrastructure/config"
	"converse-backend/infrastructure/messaging/sns"
	"converse-backend/infrastructure/persistence/dynamodb"
	"converse-backend/infrastructure/search/opensearch"
	"converse-backend/infrastructure/storage/s3"
	"converse-backend/pkg/auth"
	"converse-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideSNSClient creates an SNS client
func ProvideSNSClient(awsCfg aws.Config) *awssns.Client {
	return awssns.NewFromConfig(awsCfg)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the metrics instance, or nil when publishing is
// disabled. A nil Metrics is a no-op receiver.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("Converse/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideConversationRepository creates a conversation repository
func ProvideConversationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConversationRepository {
	return dynamodb.NewConversationRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideRelationshipRepository creates a relationship repository
func ProvideRelationshipRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RelationshipRepository {
	return dynamodb.NewRelationshipRepository(
		client,
		cfg.DynamoDBTable,
		cfg.GSI1IndexName, // by user, all conversations, most recent first
		cfg.GSI2IndexName, // by user and conversation type
		cfg.GSI3IndexName, // by user, meetings by due date
		logger,
	)
}

// ProvideMessageRepository creates a message repository
func ProvideMessageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.MessageRepository {
	return dynamodb.NewMessageRepository(
		client,
		cfg.DynamoDBTable,
		cfg.GSI1IndexName,
		cfg.GSI2IndexName,
		logger,
	)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideOrganizationRepository creates an organization repository
func ProvideOrganizationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.OrganizationRepository {
	return dynamodb.NewOrganizationRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideNotificationPublisher creates the typed SNS notification publisher
func ProvideNotificationPublisher(client *awssns.Client, cfg *config.Config, logger *zap.Logger) ports.NotificationPublisher {
	return sns.NewNotificationPublisher(client, cfg.Topics, logger)
}

// ProvideConversationSearchIndex creates the OpenSearch-backed conversation index
func ProvideConversationSearchIndex(cfg *config.Config, logger *zap.Logger) (ports.ConversationSearchIndex, error) {
	return opensearch.NewConversationIndex(cfg.OpenSearchEndpoint, cfg.OpenSearchIndex, logger)
}

// ProvideMessageFileStorage creates the S3-backed message file storage
func ProvideMessageFileStorage(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.MessageFileStorage {
	return s3.NewMessageFileStorage(
		client,
		cfg.MessageBucket,
		time.Duration(cfg.UploadURLTTL)*time.Second,
		time.Duration(cfg.DownloadURLTTL)*time.Second,
		logger,
	)
}

// ProvideJWTValidator creates the JWT validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideUserService creates the user service
func ProvideUserService(userRepo ports.UserRepository, logger *zap.Logger) *services.UserService {
	return services.NewUserService(userRepo, logger)
}

// ProvideConversationService creates the conversation service
func ProvideConversationService(conversationRepo ports.ConversationRepository, logger *zap.Logger) *services.ConversationService {
	return services.NewConversationService(conversationRepo, logger)
}

// ProvideRelationshipService creates the relationship service
func ProvideRelationshipService(relationshipRepo ports.RelationshipRepository, logger *zap.Logger) *services.RelationshipService {
	return services.NewRelationshipService(relationshipRepo, logger)
}

// ProvideMessageService creates the message service
func ProvideMessageService(
	messageRepo ports.MessageRepository,
	relationshipService *services.RelationshipService,
	logger *zap.Logger,
) *services.MessageService {
	return services.NewMessageService(messageRepo, relationshipService, logger)
}

// ProvideConversationMediator creates the conversation mediator
func ProvideConversationMediator(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	messageService *services.MessageService,
	searchIndex ports.ConversationSearchIndex,
	logger *zap.Logger,
) *mediators.ConversationMediator {
	return mediators.NewConversationMediator(
		conversationService,
		relationshipService,
		userService,
		messageService,
		searchIndex,
		logger,
	)
}

// ProvideMessageMediator creates the message mediator
func ProvideMessageMediator(
	messageService *services.MessageService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	fileStorage ports.MessageFileStorage,
	logger *zap.Logger,
) *mediators.MessageMediator {
	return mediators.NewMessageMediator(
		messageService,
		relationshipService,
		userService,
		fileStorage,
		logger,
	)
}

// ProvideStreamDispatcher creates the table stream dispatcher with every record processor registered
func ProvideStreamDispatcher(
	conversationService *services.ConversationService,
	relationshipService *services.RelationshipService,
	userService *services.UserService,
	messageService *services.MessageService,
	publisher ports.NotificationPublisher,
	logger *zap.Logger,
) *processors.StreamDispatcher {
	return processors.NewStreamDispatcher(
		logger,
		processors.NewGroupCreatedProcessor(conversationService, relationshipService, publisher, logger),
		processors.NewMeetingCreatedProcessor(conversationService, relationshipService, publisher, logger),
		processors.NewFriendAddedProcessor(relationshipService, userService, publisher, logger),
		processors.NewFriendRemovedProcessor(publisher, logger),
		processors.NewUserAddedProcessor(conversationService, relationshipService, userService, publisher, logger),
		processors.NewUserRemovedProcessor(conversationService, relationshipService, userService, publisher, logger),
		processors.NewMessageCreatedProcessor(messageService, conversationService, relationshipService, userService, publisher, logger),
		processors.NewMessageUpdatedProcessor(messageService, conversationService, relationshipService, userService, publisher, logger),
	)
}

// ProvideSNSDispatcher creates the inbound SNS dispatcher
func ProvideSNSDispatcher(
	messageService *services.MessageService,
	userService *services.UserService,
	organizationRepo ports.OrganizationRepository,
	logger *zap.Logger,
) *processors.SNSDispatcher {
	return processors.NewSNSDispatcher(
		logger,
		processors.NewMessageTranscribedProcessor(messageService, logger),
		processors.NewMessageTranscodedProcessor(messageService, logger),
		processors.NewBillingPlanUpdatedProcessor(organizationRepo, logger),
		processors.NewExternalProviderUserSignedUpProcessor(userService, logger),
	)
}
