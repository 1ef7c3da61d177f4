package services

import (
	"context"
	"strings"

	"converse-backend/application/ports"
	"converse-backend/domain/entities"
	"converse-backend/pkg/errors"

	"go.uber.org/zap"
)

// UserService owns user accounts and the unique-property claims (email,
// username, phone) that identify them.
type UserService struct {
	userRepo ports.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUser writes the user and claims every unique property in one
// transaction; a collision on any property fails the whole write.
func (s *UserService) CreateUser(ctx context.Context, email, username, phone, name string) (*entities.User, error) {
	user, err := entities.NewUser(email, username, phone, name)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("userId", user.ID),
		zap.String("username", user.Username))

	return user, nil
}

// GetUser retrieves a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*entities.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetUsers batch-retrieves users, skipping absent ids.
func (s *UserService) GetUsers(ctx context.Context, ids []string) ([]*entities.User, error) {
	return s.userRepo.GetByIDs(ctx, ids)
}

// GetUserByIdentifier resolves a free-form identifier to a user by trying it
// as an id, then as an email, username or phone unique-property claim.
func (s *UserService) GetUserByIdentifier(ctx context.Context, identifier string) (*entities.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.NewValidationError("identifier is required")
	}

	if strings.HasPrefix(identifier, entities.UserIDPrefix) {
		return s.userRepo.GetByID(ctx, identifier)
	}

	kind := entities.UniquePropertyUsername
	switch {
	case strings.Contains(identifier, "@"):
		kind = entities.UniquePropertyEmail
	case strings.HasPrefix(identifier, "+"):
		kind = entities.UniquePropertyPhone
	}

	return s.userRepo.GetByUniqueProperty(ctx, kind, identifier)
}
