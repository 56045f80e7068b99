package user

import (
	"net/http"

	"github.com/frahmantamala/visitor-management/internal"
	"github.com/frahmantamala/visitor-management/internal/transport"
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), p.ID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
