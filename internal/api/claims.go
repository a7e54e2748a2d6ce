package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/claims"
)

// ClaimsHandler handles claim endpoints.
type ClaimsHandler struct {
	Workflow *claims.Workflow
}

// Create handles POST /api/claims.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req claims.Submission
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "itemId required")
		return
	}

	claim, err := h.Workflow.Submit(r.Context(), GetClaims(r.Context()).UserID, req)
	if err != nil {
		serviceError(w, err, "failed to submit claim")
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// Mine handles GET /api/claims/my.
func (h *ClaimsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	result, err := h.Workflow.ListMine(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		serviceError(w, err, "failed to list claims")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// ForItem handles GET /api/claims/item/{itemId}.
func (h *ClaimsHandler) ForItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	result, err := h.Workflow.ListForItem(r.Context(), itemID, GetClaims(r.Context()).UserID)
	if err != nil {
		serviceError(w, err, "failed to list claims")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Decide handles PUT /api/claims/{id}.
func (h *ClaimsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req claims.Decision
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.Workflow.Decide(r.Context(), id, GetClaims(r.Context()).UserID, req)
	if err != nil {
		serviceError(w, err, "failed to update claim")
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}
