package api

import (
	"log/slog"
	"net/http"

	"github.com/quietloop/intentd/internal/api/middleware"
	"github.com/quietloop/intentd/internal/webhook"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	ConfigStore *webhook.ConfigStore
	Notifier    *webhook.Notifier
	History     *webhook.History
	Logger      *slog.Logger
	BasePath    string
	TokenHash   string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	configStore *webhook.ConfigStore
	notifier    *webhook.Notifier
	history     *webhook.History
	logger      *slog.Logger
	basePath    string
	tokenHash   string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		configStore: deps.ConfigStore,
		notifier:    deps.Notifier,
		history:     deps.History,
		logger:      deps.Logger,
		basePath:    deps.BasePath,
		tokenHash:   deps.TokenHash,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	authMw := middleware.Auth(r.tokenHash)
	submitLimiter := middleware.NewSubmitRateLimiter()
	mux := http.NewServeMux()
	bp := r.basePath

	// Public routes (no auth)
	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)

	// Protected routes
	mux.HandleFunc("GET "+bp+"/api/v1/webhook", wrapAuth(r.handleGetWebhook, authMw))
	mux.HandleFunc("PUT "+bp+"/api/v1/webhook", wrapAuth(r.handleSaveWebhook, authMw))
	mux.HandleFunc("POST "+bp+"/api/v1/webhook/test", wrapAuth(r.handleTestWebhook, authMw))
	mux.HandleFunc("GET "+bp+"/api/v1/deliveries", wrapAuth(r.handleListDeliveries, authMw))
	mux.Handle("POST "+bp+"/api/v1/intentions",
		submitLimiter.Middleware(wrapAuth(r.handleSubmitIntention, authMw)))

	return middleware.Logging(r.logger)(mux)
}

// wrapAuth wraps a handler function with auth middleware.
func wrapAuth(fn http.HandlerFunc, authMw func(http.Handler) http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authMw(fn).ServeHTTP(w, r)
	}
}
