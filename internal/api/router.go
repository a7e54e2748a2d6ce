package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/claims"
	"github.com/erazemk/najdeno/internal/items"
	"github.com/erazemk/najdeno/internal/matching"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/moderation"
	"github.com/erazemk/najdeno/internal/notify"
)

// Options configures the services behind the router.
type Options struct {
	// Registry receives claim notifications. A new one is created if nil.
	Registry *notify.Registry

	RequireOpenItem bool
	MatchCacheTTL   time.Duration

	// LoginRate limits login and register attempts per client address per
	// minute. Zero disables the limit.
	LoginRate int

	PublicURL string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	mux := http.NewServeMux()

	registry := opts.Registry
	if registry == nil {
		registry = notify.NewRegistry()
	}
	engine := matching.NewEngine(db, opts.MatchCacheTTL)
	itemService := &items.Service{DB: db, Notifier: registry, Matching: engine}

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{Items: itemService, Matching: engine}
	claimsHandler := &ClaimsHandler{Workflow: &claims.Workflow{
		DB:              db,
		Notifier:        registry,
		Matching:        engine,
		RequireOpenItem: opts.RequireOpenItem,
	}}
	adminHandler := &AdminHandler{Moderation: &moderation.Service{DB: db, Items: itemService}}
	uploadsHandler := &UploadsHandler{DB: db, PublicURL: opts.PublicURL}
	notificationsHandler := &NotificationsHandler{Registry: registry}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	limit := RateLimit(opts.LoginRate)

	// Public: account creation and login.
	mux.Handle("POST /api/auth/register", limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(authHandler.Login)))

	// Authenticated account routes.
	mux.Handle("GET /api/auth/profile", authMW(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items: browsing is public, writes need an account. Ownership is
	// checked by the item service.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.Handle("GET /api/items/mine", authMW(http.HandlerFunc(itemsHandler.Mine)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("GET /api/items/{id}/matches", authMW(http.HandlerFunc(itemsHandler.Matches)))

	// Claims.
	mux.Handle("POST /api/claims", authMW(http.HandlerFunc(claimsHandler.Create)))
	mux.Handle("GET /api/claims/my", authMW(http.HandlerFunc(claimsHandler.Mine)))
	mux.Handle("GET /api/claims/item/{itemId}", authMW(http.HandlerFunc(claimsHandler.ForItem)))
	mux.Handle("PUT /api/claims/{id}", authMW(http.HandlerFunc(claimsHandler.Decide)))

	// Moderation (admin only).
	mux.Handle("GET /api/admin/users", authMW(requireAdmin(http.HandlerFunc(adminHandler.Users))))
	mux.Handle("PUT /api/admin/users/{id}/block", authMW(requireAdmin(http.HandlerFunc(adminHandler.ToggleBlock))))
	mux.Handle("PUT /api/admin/items/{id}/suspicious", authMW(requireAdmin(http.HandlerFunc(adminHandler.ToggleSuspicious))))
	mux.Handle("DELETE /api/admin/items/{id}", authMW(requireAdmin(http.HandlerFunc(adminHandler.DeleteItem))))

	// Photos.
	mux.Handle("POST /api/upload", authMW(http.HandlerFunc(uploadsHandler.Upload)))
	mux.HandleFunc("GET /api/images/{id}", uploadsHandler.Image)

	// Real-time notifications.
	mux.Handle("GET /api/notifications/ws", authMW(http.HandlerFunc(notificationsHandler.Connect)))

	return mux
}
