package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/core/events"
)

// Service is the only writer of role grants. Every replace is followed by an
// invalidation of the role's cached permission set.
type Service struct {
	repo        RepositoryAPI
	invalidator CacheInvalidator
	publisher   EventPublisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, invalidator CacheInvalidator, publisher EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list roles", "error", err)
		return nil, internal.NewInternalError("Failed to list roles", err)
	}
	return roles, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list permissions", "error", err)
		return nil, internal.NewInternalError("Failed to list permissions", err)
	}
	return perms, nil
}

func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	perms, err := s.repo.RolePermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load role permissions", "role_id", roleID, "error", err)
		return nil, internal.NewInternalError("Failed to load role permissions", err)
	}
	return perms, nil
}

// GrantRolePermissions replaces the complete permission set of roleID.
func (s *Service) GrantRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) (*PermissionGrant, error) {
	if err := validateGrant(roleID, "permission_ids", permissionIDs); err != nil {
		return nil, err
	}
	ids := normalizeIDs(permissionIDs)

	err := s.replace(ctx, roleID, events.TypeRolePermissionsReplaced, ids, func(ctx context.Context) error {
		return s.repo.ReplaceRolePermissions(ctx, roleID, ids)
	})
	if err != nil {
		return nil, err
	}
	return &PermissionGrant{RoleID: roleID, PermissionIDs: ids}, nil
}

// GrantRoleMenuItems replaces the complete menu item set of roleID.
func (s *Service) GrantRoleMenuItems(ctx context.Context, roleID int64, menuItemIDs []int64) (*MenuItemGrant, error) {
	if err := validateGrant(roleID, "menu_item_ids", menuItemIDs); err != nil {
		return nil, err
	}
	ids := normalizeIDs(menuItemIDs)

	err := s.replace(ctx, roleID, events.TypeRoleMenuItemsReplaced, ids, func(ctx context.Context) error {
		return s.repo.ReplaceRoleMenuItems(ctx, roleID, ids)
	})
	if err != nil {
		return nil, err
	}
	return &MenuItemGrant{RoleID: roleID, MenuItemIDs: ids}, nil
}

// replace runs write and then invalidates the role's cache entry whatever
// the outcome of write, so a partially applied or rolled back write can
// never leave a stale entry behind.
func (s *Service) replace(ctx context.Context, roleID int64, eventType string, ids []int64, write func(context.Context) error) error {
	writeErr := write(ctx)
	invalidateErr := s.invalidate(ctx, roleID)

	if writeErr != nil {
		return s.mapWriteError(ctx, roleID, writeErr)
	}
	if invalidateErr != nil {
		return internal.NewInternalError("Grants saved but permission cache invalidation failed", invalidateErr)
	}

	var actorID int64
	if p, ok := internal.PrincipalFromContext(ctx); ok {
		actorID = p.ID
	}
	s.logger.InfoContext(ctx, "role grants replaced", "role_id", roleID, "event_type", eventType, "count", len(ids))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewGrantEvent(eventType, roleID, actorID, ids)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish grant event", "role_id", roleID, "error", err)
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, roleID int64) error {
	// The request may already be cancelled; the entry must still go.
	ctx = context.WithoutCancel(ctx)
	if err := s.invalidator.Invalidate(ctx, roleID); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate role permissions", "role_id", roleID, "error", err)
		return err
	}
	return nil
}

func (s *Service) mapWriteError(ctx context.Context, roleID int64, err error) error {
	if errors.Is(err, ErrRoleNotFound) {
		return internal.ErrRoleNotFound
	}

	var unknown *UnknownIDsError
	if errors.As(err, &unknown) {
		code := internal.ErrCodePermissionNotFound
		if unknown.Field == "menu_item_ids" {
			code = internal.ErrCodeMenuItemNotFound
		}
		return internal.NewValidationFieldError(unknown.Field, unknown.Error(), code)
	}

	s.logger.ErrorContext(ctx, "failed to replace role grants", "role_id", roleID, "error", err)
	return internal.NewInternalError("Failed to update role grants", err)
}
