package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/incuhub/incuhub/internal/identity"
)

func names(resources []Resource) []string {
	out := make([]string, 0, len(resources))
	for _, res := range resources {
		out = append(out, res.Name)
	}
	return out
}

func TestVisibleResourcesAdmin(t *testing.T) {
	visible := VisibleResources(DefaultRegistry().All(), ident("1", identity.RoleAdmin))

	assert.Equal(t, []string{ResourceDashboard, ResourceCompanies, ResourceAdmin, ResourceForms}, names(visible))
}

func TestVisibleResourcesDirector(t *testing.T) {
	visible := VisibleResources(DefaultRegistry().All(), ident("1", identity.RoleDirector))

	assert.Equal(t, []string{ResourceDashboard, ResourceCompanies, ResourceDirector}, names(visible))
}

// Operations navigation carries only the Operations section: the common
// resources are filtered out, mirroring the engine's listing carve-out.
func TestVisibleResourcesOperations(t *testing.T) {
	visible := VisibleResources(DefaultRegistry().All(), ident("1", identity.RoleOperations))

	assert.Equal(t, []string{ResourceOperations}, names(visible))
}

func TestVisibleResourcesConsultant(t *testing.T) {
	visible := VisibleResources(DefaultRegistry().All(), ident("1", identity.RoleConsultant))

	assert.Equal(t, []string{ResourceDashboard, ResourceCompanies, ResourceConsultant}, names(visible))
}

// Roles without a gated section still see the common resources.
func TestVisibleResourcesUngatedRole(t *testing.T) {
	visible := VisibleResources(DefaultRegistry().All(), ident("1", identity.RoleIncubatee))

	assert.Equal(t, []string{ResourceDashboard, ResourceCompanies}, names(visible))
}

func TestVisibleResourcesPreservesOrder(t *testing.T) {
	all := []Resource{
		{Name: "alpha", Common: true},
		{Name: "beta", RequiredRole: identity.RoleDirector},
		{Name: "gamma"},
		{Name: "delta", Common: true},
	}
	visible := VisibleResources(all, ident("1", identity.RoleDirector))

	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, names(visible))
}

func TestVisibleResourcesEmptyInput(t *testing.T) {
	assert.Empty(t, VisibleResources(nil, ident("1", identity.RoleAdmin)))
}
