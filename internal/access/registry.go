package access

import "github.com/incuhub/incuhub/internal/identity"

// Canonical resource names. Route wiring and the registry share these so a
// renamed section cannot silently split from its guard.
const (
	ResourceDashboard  = "dashboard"
	ResourceCompanies  = "companies"
	ResourceAdmin      = "admin"
	ResourceForms      = "forms"
	ResourceDirector   = "director"
	ResourceOperations = "operations"
	ResourceConsultant = "consultant"
)

// Registry is the process-wide resource configuration, built once at startup
// and immutable afterwards. Order is preserved because navigation rendering
// follows registration order.
type Registry struct {
	resources []Resource
	byName    map[string]Resource
}

// NewRegistry builds a registry from the given resources. The first entry
// wins when a name is registered twice.
func NewRegistry(resources ...Resource) *Registry {
	r := &Registry{
		resources: make([]Resource, 0, len(resources)),
		byName:    make(map[string]Resource, len(resources)),
	}
	for _, res := range resources {
		if res.Name == "" {
			continue
		}
		if _, exists := r.byName[res.Name]; exists {
			continue
		}
		r.byName[res.Name] = res
		r.resources = append(r.resources, res)
	}
	return r
}

// DefaultRegistry returns the platform's resource table: the two universally
// common resources and the role-gated sections. Extend here, never by
// branching on resource names elsewhere.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Resource{Name: ResourceDashboard, Common: true},
		Resource{Name: ResourceCompanies, Common: true},
		Resource{Name: ResourceAdmin, RequiredRole: identity.RoleAdmin},
		Resource{Name: ResourceForms, RequiredRole: identity.RoleAdmin},
		Resource{Name: ResourceDirector, RequiredRole: identity.RoleDirector},
		Resource{Name: ResourceOperations, RequiredRole: identity.RoleOperations},
		Resource{Name: ResourceConsultant, RequiredRole: identity.RoleConsultant},
	)
}

// Lookup returns the registered resource by name.
func (r *Registry) Lookup(name string) (Resource, bool) {
	res, ok := r.byName[name]
	return res, ok
}

// All returns the registered resources in registration order.
func (r *Registry) All() []Resource {
	out := make([]Resource, len(r.resources))
	copy(out, r.resources)
	return out
}
