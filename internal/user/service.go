package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/visitor-management/internal"
)

type Service struct {
	repo     Repository
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver PermissionResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// GetProfile loads the user and the permissions their role currently holds.
// The role is read from the store, not from the token, so a role change is
// visible before the token expires.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get user by id", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("Failed to load user", err)
	}

	set, err := s.resolver.Resolve(ctx, u.RoleID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve user permissions", "user_id", userID, "role_id", u.RoleID, "error", err)
		return nil, internal.NewInternalError("Failed to load user permissions", err)
	}

	return newProfile(u, set.Strings()), nil
}
