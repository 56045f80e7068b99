package rbac

import (
	"errors"
	"net/http"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/transport"
)

type Middleware struct {
	*transport.BaseHandler
	guard *Guard
}

func NewMiddleware(baseHandler *transport.BaseHandler, guard *Guard) *Middleware {
	return &Middleware{BaseHandler: baseHandler, guard: guard}
}

// Require lets the request through only when the authenticated principal
// holds permission. It must be mounted behind the auth middleware.
func (m *Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				m.Logger.WarnContext(r.Context(), "authorization check failed: principal not found in context")
				m.WriteAppError(w, r, internal.ErrMissingToken)
				return
			}

			ctx, _, err := m.guard.WithPermissions(r.Context(), p)
			if err != nil {
				m.WriteAppError(w, r, internal.NewInternalError("Internal server error", err))
				return
			}

			if err := m.guard.Authorize(ctx, p, permission); err != nil {
				if errors.Is(err, internal.ErrForbidden) {
					m.WriteAppError(w, r, internal.ErrForbidden)
					return
				}
				m.WriteAppError(w, r, internal.NewInternalError("Internal server error", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
