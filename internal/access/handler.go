package access

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/platform/httpx"
)

// DecisionObserver records evaluated decisions for metrics.
type DecisionObserver interface {
	ObserveDecision(resource string, allowed bool)
}

// Handler exposes the decision engine and visibility filter over HTTP: a
// generic access check used by clients that need fine-grained answers, and
// the navigation listing.
type Handler struct {
	logger   *slog.Logger
	engine   *Engine
	registry *Registry
	resolver identity.Source
	observer DecisionObserver
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, engine *Engine, registry *Registry, resolver identity.Source, observer DecisionObserver) *Handler {
	return &Handler{
		logger:   logger,
		engine:   engine,
		registry: registry,
		resolver: resolver,
		observer: observer,
	}
}

// MountRoutes attaches access endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/check", h.check)
}

// check answers a single decision for the current identity. Always 200: the
// decision payload carries the outcome, including "unauthenticated".
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	if resource == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "resource query parameter is required")
		return
	}
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if action == "" {
		action = ActionList
	}

	ident, err := h.resolver.Resolve(r.Context())
	if err != nil {
		h.logger.Error("access check resolve", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	decision := h.engine.Decide(ident, resource, action)
	if h.observer != nil {
		h.observer.ObserveDecision(resource, decision.Allowed)
	}
	httpx.JSON(w, http.StatusOK, decision)
}

// Navigation lists the resources the current identity's navigation should
// present, in registration order.
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	ident, err := h.resolver.Resolve(r.Context())
	if err != nil {
		h.logger.Error("navigation resolve", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !ident.Resolved() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to load navigation")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":      ident.Role,
		"resources": VisibleResources(h.registry.All(), ident),
	})
}
