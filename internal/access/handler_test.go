package access

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incuhub/incuhub/internal/identity"
)

type stubSource struct {
	ident identity.Identity
	err   error
}

func (s stubSource) Resolve(ctx context.Context) (identity.Identity, error) {
	return s.ident, s.err
}

type recordingObserver struct {
	resource string
	allowed  bool
	calls    int
}

func (o *recordingObserver) ObserveDecision(resource string, allowed bool) {
	o.resource = resource
	o.allowed = allowed
	o.calls++
}

func newTestHandler(source identity.Source, observer DecisionObserver) *Handler {
	registry := DefaultRegistry()
	return NewHandler(slog.New(slog.DiscardHandler), NewEngine(registry), registry, source, observer)
}

func performCheck(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestCheckAllowed(t *testing.T) {
	observer := &recordingObserver{}
	h := newTestHandler(stubSource{ident: ident("1", identity.RoleAdmin)}, observer)

	rr := performCheck(t, h, "/check?resource=admin&action=list")

	require.Equal(t, http.StatusOK, rr.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, observer.calls)
	assert.Equal(t, "admin", observer.resource)
	assert.True(t, observer.allowed)
}

func TestCheckDeniedCarriesReason(t *testing.T) {
	h := newTestHandler(stubSource{ident: ident("1", identity.RoleConsultant)}, nil)

	rr := performCheck(t, h, "/check?resource=admin")

	require.Equal(t, http.StatusOK, rr.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "admin requires Admin privileges.", decision.Reason)
}

func TestCheckUnauthenticated(t *testing.T) {
	h := newTestHandler(stubSource{}, nil)

	rr := performCheck(t, h, "/check?resource=dashboard")

	require.Equal(t, http.StatusOK, rr.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "unauthenticated", decision.Reason)
}

func TestCheckMissingResourceParam(t *testing.T) {
	h := newTestHandler(stubSource{ident: ident("1", identity.RoleAdmin)}, nil)

	rr := performCheck(t, h, "/check")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckDefaultsToListAction(t *testing.T) {
	h := newTestHandler(stubSource{ident: ident("1", identity.RoleOperations)}, nil)

	rr := performCheck(t, h, "/check?resource=dashboard")

	require.Equal(t, http.StatusOK, rr.Code)
	var decision Decision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "resource not available for Operations users.", decision.Reason)
}

func TestNavigationRequiresAuthentication(t *testing.T) {
	h := newTestHandler(stubSource{}, nil)

	rr := httptest.NewRecorder()
	h.Navigation(rr, httptest.NewRequest(http.MethodGet, "/nav", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNavigationListsVisibleResources(t *testing.T) {
	h := newTestHandler(stubSource{ident: ident("1", identity.RoleDirector)}, nil)

	rr := httptest.NewRecorder()
	h.Navigation(rr, httptest.NewRequest(http.MethodGet, "/nav", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var payload struct {
		Role      identity.Role `json:"role"`
		Resources []Resource    `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, identity.RoleDirector, payload.Role)
	assert.Equal(t, []string{ResourceDashboard, ResourceCompanies, ResourceDirector}, names(payload.Resources))
}
