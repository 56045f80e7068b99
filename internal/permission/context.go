package permission

import "context"

type ctxKey struct{}

type resolved struct {
	roleID int64
	set    Set
}

// WithSet stores a set already resolved for roleID so later checks in the
// same request can reuse it.
func WithSet(ctx context.Context, roleID int64, set Set) context.Context {
	return context.WithValue(ctx, ctxKey{}, resolved{roleID: roleID, set: set})
}

func SetFromContext(ctx context.Context, roleID int64) (Set, bool) {
	r, ok := ctx.Value(ctxKey{}).(resolved)
	if !ok || r.roleID != roleID {
		return Set{}, false
	}
	return r.set, true
}
