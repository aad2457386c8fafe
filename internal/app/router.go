package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/incuhub/incuhub/internal/access"
	"github.com/incuhub/incuhub/internal/auth"
	"github.com/incuhub/incuhub/internal/guard"
	"github.com/incuhub/incuhub/internal/observability"
	"github.com/incuhub/incuhub/internal/platform/httpx"
	"github.com/incuhub/incuhub/internal/profile"
	"github.com/incuhub/incuhub/internal/program"
	"github.com/incuhub/incuhub/internal/shared"
	"github.com/incuhub/incuhub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler    *auth.Handler
	AccessHandler  *access.Handler
	ProfileHandler *profile.Handler
	ProgramHandler *program.Handler
	JobHandler     *jobs.Handler
	Guard          guard.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with IncuHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Root answers the authenticated entry state plus any pending flash, so
	// clients can surface denial messages after a guard redirect.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		payload := map[string]any{
			"app":        "incuhub",
			"env":        params.Config.AppEnv,
			"csrf_token": csrfToken,
		}
		if flash := sess.PopFlash(); flash != nil {
			payload["flash"] = flash
		}
		httpx.JSON(w, http.StatusOK, payload)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Get("/nav", params.AccessHandler.Navigation)
	r.Route("/access", params.AccessHandler.MountRoutes)

	// Common resources: every authenticated role may enter, with the
	// Operations listing carve-out enforced by the decision engine.
	r.Route("/dashboard", func(r chi.Router) {
		r.With(params.Guard.RequireAccess(access.ResourceDashboard, access.ActionList)).
			Get("/", params.ProgramHandler.DashboardSummary)
	})
	r.Route("/companies", func(r chi.Router) {
		r.Use(params.Guard.RequireAuthenticated())
		r.With(params.Guard.RequireAccess(access.ResourceCompanies, access.ActionList)).
			Get("/", params.ProgramHandler.ListCompanies)
		r.With(params.Guard.RequireAccess(access.ResourceCompanies, access.ActionCreate)).
			Post("/", params.ProgramHandler.CreateCompany)
		r.With(params.Guard.RequireAccess(access.ResourceCompanies, access.ActionEdit)).
			Put("/{id}/stage", params.ProgramHandler.UpdateStage)
		r.With(params.Guard.RequireAccess(access.ResourceCompanies, access.ActionShow)).
			Get("/{id}/history", params.ProgramHandler.StageHistory)
	})

	// Role-gated areas. Guards come from the registry so route wiring and
	// the decision engine can never disagree about who owns an area.
	r.Route("/admin", func(r chi.Router) {
		r.Use(params.Guard.ForResource(access.ResourceAdmin))
		params.ProfileHandler.MountRoutes(r)
	})
	r.Route("/forms", func(r chi.Router) {
		r.Use(params.Guard.ForResource(access.ResourceForms))
		r.Get("/", areaHandler(access.ResourceForms))
	})
	r.Route("/director", func(r chi.Router) {
		r.Use(params.Guard.ForResource(access.ResourceDirector))
		r.Get("/", areaHandler(access.ResourceDirector))
	})
	r.Route("/operations", func(r chi.Router) {
		r.Use(params.Guard.ForResource(access.ResourceOperations))
		r.Get("/", areaHandler(access.ResourceOperations))
	})
	r.Route("/consultant", func(r chi.Router) {
		r.Use(params.Guard.ForResource(access.ResourceConsultant))
		r.Get("/", areaHandler(access.ResourceConsultant))
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// areaHandler answers a minimal landing payload for a role-gated area.
func areaHandler(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"area": resource, "status": "ok"})
	}
}
