// Package handler provides the catalog's HTTP handlers.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"item-catalog/internal/middleware"
	"item-catalog/internal/service"
	"item-catalog/internal/session"
	"item-catalog/internal/view"
)

// HealthFunc reports whether the service's dependencies are usable.
type HealthFunc func(ctx context.Context) error

// Handler serves the catalog pages, JSON endpoints and the login flow.
type Handler struct {
	catalog  *service.CatalogService
	auth     *service.AuthService
	sessions *session.Manager
	views    *view.Renderer
	health   HealthFunc
	log      *slog.Logger
}

func New(
	catalog *service.CatalogService,
	auth *service.AuthService,
	sessions *session.Manager,
	views *view.Renderer,
	health HealthFunc,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		catalog:  catalog,
		auth:     auth,
		sessions: sessions,
		views:    views,
		health:   health,
		log:      log,
	}
}

// Routes returns the chi router with all routes configured.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Load)

		// Login flow
		r.Get("/login", h.LoginPage)
		r.Get("/authorize", h.Authorize)
		r.Get("/oauth2callback", h.OAuthCallback)
		r.Get("/revoke", h.Revoke)
		r.Get("/clear", h.Clear)

		// Read-only JSON
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORS())
			r.Get("/catalog.json", h.CatalogJSON)
			r.Get("/catalog/categories/JSON", h.CategoriesJSON)
			r.Get("/catalog/{category}/items/JSON", h.CategoryItemsJSON)
			r.Get("/catalog/{category}/{item}/JSON", h.ItemJSON)
		})

		// Public pages
		r.Get("/", h.Index)
		r.Get("/catalog/{category}/items", h.CategoryItems)
		r.Get("/catalog/{category}/{item}", h.Item)

		// Owner actions
		r.Group(func(r chi.Router) {
			r.Use(h.RequireLogin)
			r.Get("/catalog/item/new", h.NewItemForm)
			r.Post("/catalog/item/new", h.CreateItem)
			r.Get("/catalog/{category}/{item}/edit", h.EditItemForm)
			r.Post("/catalog/{category}/{item}/edit", h.UpdateItem)
			r.Get("/catalog/{category}/{item}/delete", h.DeleteItemForm)
			r.Post("/catalog/{category}/{item}/delete", h.DeleteItem)
		})
	})

	return r
}

// RequireLogin redirects anonymous visitors to the login page.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil || !sess.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Error("health check failed", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathParam returns the unescaped route parameter. chi matches on RawPath
// when the request path carries escapes the default encoding would not
// produce.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func categoryURL(category string) string {
	return "/catalog/" + url.PathEscape(category) + "/items"
}

func itemURL(category, item string) string {
	return "/catalog/" + url.PathEscape(category) + "/" + url.PathEscape(item)
}
