package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/unieval/course-review-api/internal/models"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type userReader interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	SetLocked(ctx context.Context, userID string, locked bool) error
	SetRole(ctx context.Context, userID string, role models.UserRole) error
}

// UserService serves profiles and the admin account dashboard.
type UserService struct {
	repo   userReader
	logger *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(repo userReader, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// Profile returns the caller's account.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.Deleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// List returns accounts for the admin dashboard.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.PageFilter, total), nil
}

// SetLocked locks or unlocks an account.
func (s *UserService) SetLocked(ctx context.Context, userID string, locked bool) error {
	if userID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	if err := s.repo.SetLocked(ctx, userID, locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lock state")
	}
	s.logger.Info("user lock state changed", zap.String("user_id", userID), zap.Bool("locked", locked))
	return nil
}

// SetRole changes an account's role.
func (s *UserService) SetRole(ctx context.Context, userID string, role models.UserRole) error {
	if userID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	if role != models.RoleAdmin && role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "role must be ADMIN or STUDENT")
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	s.logger.Info("user role changed", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}
