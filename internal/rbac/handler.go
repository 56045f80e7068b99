package rbac

import (
	"encoding/json"
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

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := transport.PathInt64(chi.URLParam(r, "id"))
	if !ok {
		h.WriteAppError(w, r, internal.NewValidationError("Invalid role ID", internal.ErrCodeInvalidID))
		return 0, false
	}
	return id, true
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

// ListPermissions handles GET /permissions
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

// GetRolePermissions handles GET /roles/{id}/permissions
func (h *Handler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}

	perms, err := h.Service.RolePermissions(r.Context(), roleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

// ReplaceRolePermissions handles PUT /roles/{id}/permissions
func (h *Handler) ReplaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}

	var dto GrantPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, r, internal.NewValidationError("Invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	result, err := h.Service.GrantRolePermissions(r.Context(), roleID, dto.PermissionIDs)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

// ReplaceRoleMenuItems handles PUT /roles/{id}/menu-items
func (h *Handler) ReplaceRoleMenuItems(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}

	var dto GrantMenuItemsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, r, internal.NewValidationError("Invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	result, err := h.Service.GrantRoleMenuItems(r.Context(), roleID, dto.MenuItemIDs)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
