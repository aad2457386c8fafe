package guard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/incuhub/incuhub/internal/access"
	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/platform/httpx"
	"github.com/incuhub/incuhub/internal/shared"
)

// DenialRecorder persists denied attempts for auditing. *shared.AuditLogger
// satisfies it.
type DenialRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Middleware builds HTTP guards over identity resolution and the decision
// engine. Role guards redirect browsers; the fine-grained access guard
// answers problem JSON.
type Middleware struct {
	Resolver identity.Source
	Engine   *access.Engine
	Registry *access.Registry
	Logger   *slog.Logger
	Auditor  DenialRecorder
	Observer access.DecisionObserver
	Timeout  time.Duration
}

// RequireRole admits only identities carrying exactly the required role.
// Unauthenticated requests are sent to login; everything else denied is sent
// back to the root with a flash naming the required role.
func (m Middleware) RequireRole(required identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g := New(m.Resolver, required, m.Timeout)
			res := g.Evaluate(r.Context())
			switch res.State {
			case StateAuthorized:
				next.ServeHTTP(w, r)
			case StateDenied:
				m.recordDenial(r, res.Identity, res.Reason)
				sess := shared.SessionFromContext(r.Context())
				if !res.Identity.Resolved() {
					http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
					return
				}
				if sess != nil {
					sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Access denied: " + res.Reason})
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
			default:
				// Torn down mid-resolution; the outcome was discarded and
				// there is no client left to answer.
			}
		})
	}
}

// ForResource binds a role guard from the registry entry for the named
// resource, so route wiring never hand-codes role strings. Common and
// ungated resources only need an authenticated identity.
func (m Middleware) ForResource(name string) func(http.Handler) http.Handler {
	if res, ok := m.Registry.Lookup(name); ok && res.RequiredRole != identity.RoleNone {
		return m.RequireRole(res.RequiredRole)
	}
	return m.RequireAuthenticated()
}

// RequireAuthenticated admits any resolved identity, regardless of role.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := m.resolve(w, r)
			if !ok {
				return
			}
			if !ident.Resolved() {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAccess consults the decision engine for a resource and action.
// Denials answer RFC7807 problem JSON instead of redirecting, since this
// guard fronts API-shaped routes.
func (m Middleware) RequireAccess(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := m.resolve(w, r)
			if !ok {
				return
			}
			decision := m.Engine.Decide(ident, resource, action)
			if m.Observer != nil {
				m.Observer.ObserveDecision(resource, decision.Allowed)
			}
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			m.recordDenial(r, ident, decision.Reason)
			if !ident.Resolved() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", decision.Reason)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
		})
	}
}

// resolve settles identity resolution under the guard timeout. The second
// return is false when the request is already dead or resolution failed in a
// way that was answered.
func (m Middleware) resolve(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	ident, err := m.Resolver.Resolve(rctx)
	if r.Context().Err() != nil {
		return identity.Identity{}, false
	}
	if rctx.Err() != nil {
		m.recordDenial(r, ident, "identity resolution timed out")
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "identity resolution timed out")
		return identity.Identity{}, false
	}
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("guard resolve identity", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return identity.Identity{}, false
	}
	return ident, true
}

func (m Middleware) recordDenial(r *http.Request, ident identity.Identity, reason string) {
	if m.Auditor == nil {
		return
	}
	actor := ident.ID
	if actor == "" {
		actor = "anonymous"
	}
	err := m.Auditor.Record(r.Context(), shared.AuditLog{
		ActorID:  actor,
		Action:   shared.AuditActionAccessDenied,
		Entity:   "route",
		EntityID: r.URL.Path,
		Meta:     map[string]any{"reason": reason},
	})
	if err != nil && m.Logger != nil {
		m.Logger.Warn("record denial", slog.Any("error", err))
	}
}
