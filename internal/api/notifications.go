package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/notify"
)

// NotificationsHandler attaches WebSocket clients to the registry.
type NotificationsHandler struct {
	Registry *notify.Registry
}

// Connect handles GET /api/notifications/ws.
func (h *NotificationsHandler) Connect(w http.ResponseWriter, r *http.Request) {
	h.Registry.ServeWS(w, r, GetClaims(r.Context()).UserID)
}
