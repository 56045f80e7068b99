package rbac

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/permission"
)

// Guard answers whether a principal holds a permission. The check is strict
// membership: wildcard grants do not satisfy it.
type Guard struct {
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewGuard(resolver PermissionResolver, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{resolver: resolver, logger: logger}
}

// Permissions returns the permission set of p's role, reusing one already
// resolved for this request.
func (g *Guard) Permissions(ctx context.Context, p internal.Principal) (permission.Set, error) {
	if set, ok := permission.SetFromContext(ctx, p.RoleID); ok {
		return set, nil
	}
	return g.resolver.Resolve(ctx, p.RoleID)
}

// WithPermissions resolves p's permission set and returns a context that
// carries it for later checks in the same request.
func (g *Guard) WithPermissions(ctx context.Context, p internal.Principal) (context.Context, permission.Set, error) {
	set, err := g.Permissions(ctx, p)
	if err != nil {
		return ctx, permission.Set{}, err
	}
	return permission.WithSet(ctx, p.RoleID, set), set, nil
}

// Authorize fails with internal.ErrForbidden unless p holds required.
func (g *Guard) Authorize(ctx context.Context, p internal.Principal, required string) error {
	set, err := g.Permissions(ctx, p)
	if err != nil {
		return err
	}
	if !set.Has(required) {
		g.logger.WarnContext(ctx, "access denied: insufficient permissions",
			"user_id", p.ID,
			"role_id", p.RoleID,
			"required_permission", required)
		return internal.ErrForbidden
	}
	return nil
}
