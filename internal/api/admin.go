package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/moderation"
)

// AdminHandler handles moderation endpoints (admin only).
type AdminHandler struct {
	Moderation *moderation.Service
}

// Users handles GET /api/admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.Moderation.ListUsers(r.Context())
	if err != nil {
		serviceError(w, err, "failed to list users")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// ToggleBlock handles PUT /api/admin/users/{id}/block.
func (h *AdminHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.Moderation.ToggleBlock(r.Context(), GetClaims(r.Context()).UserID, id)
	if err != nil {
		serviceError(w, err, "failed to update user")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ToggleSuspicious handles PUT /api/admin/items/{id}/suspicious.
func (h *AdminHandler) ToggleSuspicious(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Moderation.ToggleSuspicious(r.Context(), id)
	if err != nil {
		serviceError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/admin/items/{id}.
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Moderation.DeleteItem(r.Context(), GetClaims(r.Context()).UserID, id); err != nil {
		serviceError(w, err, "failed to delete item")
		return
	}
	jsonMessage(w, "Item removed by admin")
}
