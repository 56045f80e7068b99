package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/transport"
	"github.com/frahmantamala/visitor-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, loginError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// loginError never tells the caller whether the username or the secret was
// wrong.
func loginError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		return internal.ErrInvalidCredentials
	case errors.Is(err, ErrAccountDisabled):
		return internal.ErrUserInactive
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError("Internal server error", err)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// verified principal in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, r, internal.ErrMissingToken)
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				h.WriteAppError(w, r, internal.ErrTokenExpired)
				return
			}
			h.WriteAppError(w, r, internal.ErrInvalidToken)
			return
		}

		p := claims.Principal()
		ctx := internal.ContextWithPrincipal(r.Context(), internal.Principal{
			ID:       p.ID,
			Username: p.Username,
			RoleID:   p.RoleID,
		})
		ctx = logger.With(ctx, "user_id", p.ID, "role_id", p.RoleID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
