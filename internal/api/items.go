package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/najdeno/internal/items"
	"github.com/erazemk/najdeno/internal/matching"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Items    *items.Service
	Matching *matching.Engine
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("pageNumber"))

	result, err := h.Items.List(r.Context(), items.Query{
		Keyword:  q.Get("keyword"),
		Page:     page,
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	})
	if err != nil {
		serviceError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	result, err := h.Items.Mine(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		serviceError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Items.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req items.Input
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.Create(r.Context(), GetClaims(r.Context()).UserID, req)
	if err != nil {
		serviceError(w, err, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req items.Patch
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Items.Update(r.Context(), id, requester(GetClaims(r.Context())), req)
	if err != nil {
		serviceError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Items.Delete(r.Context(), id, requester(GetClaims(r.Context()))); err != nil {
		serviceError(w, err, "failed to delete item")
		return
	}
	jsonMessage(w, "Item removed")
}

// Matches handles GET /api/items/{id}/matches.
func (h *ItemsHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	matches, err := h.Matching.Matches(r.Context(), id)
	if err != nil {
		serviceError(w, err, "failed to find matches")
		return
	}
	jsonResponse(w, http.StatusOK, matches)
}
