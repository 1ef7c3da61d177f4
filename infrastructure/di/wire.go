//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"converse-backend/application/mediators"
	"converse-backend/application/ports"
	"converse-backend/application/processors"
	"converse-backend/application/services"
	"converse-backend/infrastructure/config"
	"converse-backend/pkg/auth"
	"converse-backend/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config               *config.Config
	Logger               *zap.Logger
	ConversationRepo     ports.ConversationRepository
	RelationshipRepo     ports.RelationshipRepository
	MessageRepo          ports.MessageRepository
	UserRepo             ports.UserRepository
	OrganizationRepo     ports.OrganizationRepository
	UserService          *services.UserService
	ConversationMediator *mediators.ConversationMediator
	MessageMediator      *mediators.MessageMediator
	JWTValidator         *auth.JWTValidator
	Metrics              *observability.Metrics
	StreamDispatcher     *processors.StreamDispatcher
	SNSDispatcher        *processors.SNSDispatcher
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideSNSClient,
	ProvideS3Client,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideConversationRepository,
	ProvideRelationshipRepository,
	ProvideMessageRepository,
	ProvideUserRepository,
	ProvideOrganizationRepository,
	ProvideNotificationPublisher,
	ProvideConversationSearchIndex,
	ProvideMessageFileStorage,
	ProvideJWTValidator,
	ProvideUserService,
	ProvideConversationService,
	ProvideRelationshipService,
	ProvideMessageService,
	ProvideConversationMediator,
	ProvideMessageMediator,
	ProvideStreamDispatcher,
	ProvideSNSDispatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
