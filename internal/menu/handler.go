package menu

import (
	"net/http"

	"github.com/go-chi/chi"

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

// GetMyMenu handles GET /menus/me
func (h *Handler) GetMyMenu(w http.ResponseWriter, r *http.Request) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}
	h.writeMenu(w, r, p.RoleID)
}

// GetRoleMenu handles GET /roles/{id}/menus
func (h *Handler) GetRoleMenu(w http.ResponseWriter, r *http.Request) {
	roleID, ok := transport.PathInt64(chi.URLParam(r, "id"))
	if !ok {
		h.WriteAppError(w, r, internal.NewValidationError("Invalid role ID", internal.ErrCodeInvalidID))
		return
	}
	h.writeMenu(w, r, roleID)
}

func (h *Handler) writeMenu(w http.ResponseWriter, r *http.Request, roleID int64) {
	nodes, err := h.Service.Assemble(r.Context(), roleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, nodes)
}
