// Package guard gates role-scoped route trees behind identity resolution.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/incuhub/incuhub/internal/identity"
)

// DefaultTimeout bounds identity resolution so a stalled backend cannot hold
// a request in Checking forever.
const DefaultTimeout = 5 * time.Second

// State describes where a guard instance is in its lifecycle.
type State int

const (
	// StateChecking means identity resolution has not settled yet. Nothing
	// protected may be rendered and no redirect may be issued in this state.
	StateChecking State = iota
	// StateAuthorized means the resolved identity carries the required role.
	StateAuthorized
	// StateDenied means resolution settled without the required role.
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Result is the settled outcome of one evaluation.
type Result struct {
	State    State
	Identity identity.Identity
	Reason   string
	// Discarded is set when the caller went away mid-resolution; the outcome
	// was thrown out and the guard never left Checking.
	Discarded bool
}

// Guard authorizes exactly one required role for one request. A fresh
// instance is created per request; it settles at most once.
type Guard struct {
	resolver identity.Source
	required identity.Role
	timeout  time.Duration

	mu     sync.Mutex
	state  State
	reason string
}

// New constructs a guard for the required role.
func New(resolver identity.Source, required identity.Role, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{resolver: resolver, required: required, timeout: timeout, state: StateChecking}
}

// State reports the guard's current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// RequiredRole returns the role this guard authorizes.
func (g *Guard) RequiredRole() identity.Role {
	return g.required
}

// Evaluate resolves the current identity and settles the guard. Resolution
// runs under the configured timeout; hitting it settles as Denied. If ctx
// itself is cancelled while resolution is pending the outcome is discarded
// and the guard stays in Checking, since there is nobody left to answer.
func (g *Guard) Evaluate(ctx context.Context) Result {
	g.mu.Lock()
	if g.state != StateChecking {
		res := Result{State: g.state, Reason: g.reason}
		g.mu.Unlock()
		return res
	}
	g.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ident, err := g.resolver.Resolve(rctx)

	if ctx.Err() != nil {
		return Result{State: StateChecking, Discarded: true}
	}
	if rctx.Err() != nil {
		return g.settle(StateDenied, ident, "identity resolution timed out")
	}
	if err != nil {
		return g.settle(StateDenied, ident, "identity resolution failed")
	}
	if !ident.Resolved() {
		return g.settle(StateDenied, ident, "unauthenticated")
	}
	if ident.Role != g.required {
		return g.settle(StateDenied, ident, fmt.Sprintf("requires %s role", g.required))
	}
	return g.settle(StateAuthorized, ident, "")
}

func (g *Guard) settle(state State, ident identity.Identity, reason string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateChecking {
		g.state = state
		g.reason = reason
	}
	return Result{State: g.state, Identity: ident, Reason: g.reason}
}
