package guard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incuhub/incuhub/internal/access"
	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/shared"
)

type captureAuditor struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *captureAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *captureAuditor) recorded() []shared.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]shared.AuditLog(nil), a.logs...)
}

func newMiddleware(resolver identity.Source, auditor DenialRecorder) Middleware {
	registry := access.DefaultRegistry()
	return Middleware{
		Resolver: resolver,
		Engine:   access.NewEngine(registry),
		Registry: registry,
		Logger:   slog.New(slog.DiscardHandler),
		Auditor:  auditor,
		Timeout:  time.Second,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected"))
	})
}

func TestRequireRoleAuthorized(t *testing.T) {
	mw := newMiddleware(stubResolver{ident: admin()}, nil)

	rr := httptest.NewRecorder()
	mw.RequireRole(identity.RoleAdmin)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "protected", rr.Body.String())
}

func TestRequireRoleRedirectsUnauthenticatedToLogin(t *testing.T) {
	mw := newMiddleware(stubResolver{}, nil)

	rr := httptest.NewRecorder()
	mw.RequireRole(identity.RoleAdmin)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
}

func TestRequireRoleRedirectsMismatchHome(t *testing.T) {
	auditor := &captureAuditor{}
	mw := newMiddleware(stubResolver{ident: admin()}, auditor)

	rr := httptest.NewRecorder()
	mw.RequireRole(identity.RoleDirector)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/director", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	logs := auditor.recorded()
	require.Len(t, logs, 1)
	assert.Equal(t, "1", logs[0].ActorID)
	assert.Equal(t, shared.AuditActionAccessDenied, logs[0].Action)
	assert.Equal(t, "/director", logs[0].EntityID)
}

func TestRequireRoleWritesNothingOnCallerCancellation(t *testing.T) {
	mw := newMiddleware(stubResolver{block: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/admin", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		mw.RequireRole(identity.RoleAdmin)(okHandler()).ServeHTTP(rr, req)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Location"))
}

func TestForResourceUsesRegistryRole(t *testing.T) {
	mw := newMiddleware(stubResolver{ident: admin()}, nil)

	rr := httptest.NewRecorder()
	mw.ForResource(access.ResourceAdmin)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mw.ForResource(access.ResourceDirector)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/director", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestForResourceUnknownNeedsOnlyAuthentication(t *testing.T) {
	mw := newMiddleware(stubResolver{ident: identity.Identity{ID: "9", Email: "n@incuhub.io"}}, nil)

	rr := httptest.NewRecorder()
	mw.ForResource("notes")(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/notes", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuthenticatedRedirects(t *testing.T) {
	mw := newMiddleware(stubResolver{}, nil)

	rr := httptest.NewRecorder()
	mw.RequireAuthenticated()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/companies", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login", rr.Header().Get("Location"))
}

func TestRequireAccessAllows(t *testing.T) {
	mw := newMiddleware(stubResolver{ident: admin()}, nil)

	rr := httptest.NewRecorder()
	mw.RequireAccess(access.ResourceDashboard, access.ActionList)(okHandler()).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAccessAnswersForbiddenJSON(t *testing.T) {
	auditor := &captureAuditor{}
	ops := identity.Identity{ID: "7", Email: "ops@incuhub.io", Role: identity.RoleOperations}
	mw := newMiddleware(stubResolver{ident: ops}, auditor)

	rr := httptest.NewRecorder()
	mw.RequireAccess(access.ResourceDashboard, access.ActionList)(okHandler()).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusForbidden, rr.Code)
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, "Forbidden", problem.Title)
	assert.Equal(t, "resource not available for Operations users.", problem.Detail)
	assert.Len(t, auditor.recorded(), 1)
}

func TestRequireAccessAnswersUnauthorizedJSON(t *testing.T) {
	mw := newMiddleware(stubResolver{}, nil)

	rr := httptest.NewRecorder()
	mw.RequireAccess(access.ResourceDashboard, access.ActionList)(okHandler()).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAccessTimeoutAnswersUnavailable(t *testing.T) {
	mw := newMiddleware(stubResolver{block: true}, nil)
	mw.Timeout = 30 * time.Millisecond

	rr := httptest.NewRecorder()
	mw.RequireAccess(access.ResourceDashboard, access.ActionList)(okHandler()).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
