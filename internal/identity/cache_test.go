package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	ident Identity
	calls int
}

func (s *countingSource) Resolve(ctx context.Context) (Identity, error) {
	s.calls++
	return s.ident, nil
}

func newCacheFixture(t *testing.T, ident Identity) (*CachedResolver, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	source := &countingSource{ident: ident}
	return NewCachedResolver(source, client, time.Minute, testLogger()), source, mr
}

func TestCachedResolveHitSkipsUpstream(t *testing.T) {
	who := Identity{ID: "42", Name: "Jane Doe", Email: "jane.doe@acme.io", Role: RoleDirector}
	cached, source, _ := newCacheFixture(t, who)
	ctx := ctxWithUser("s1", "42")

	first, err := cached.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, who, first)
	assert.Equal(t, 1, source.calls)

	second, err := cached.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, who, second)
	assert.Equal(t, 1, source.calls, "second resolve must come from cache")
}

func TestCachedResolveNoSession(t *testing.T) {
	cached, source, _ := newCacheFixture(t, Identity{ID: "42", Role: RoleAdmin})

	ident, err := cached.Resolve(context.Background())

	require.NoError(t, err)
	assert.False(t, ident.Resolved())
	assert.Zero(t, source.calls)
}

// A role-less identity signals a degraded resolution; caching it would pin
// the degraded state for the full TTL.
func TestCachedResolveSkipsDegradedIdentities(t *testing.T) {
	cached, source, _ := newCacheFixture(t, Identity{ID: "42", Email: "jane.doe@acme.io"})
	ctx := ctxWithUser("s1", "42")

	_, err := cached.Resolve(ctx)
	require.NoError(t, err)
	_, err = cached.Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestCachedResolveNeverCrossesSessions(t *testing.T) {
	who := Identity{ID: "42", Role: RoleAdmin}
	cached, source, _ := newCacheFixture(t, who)

	_, err := cached.Resolve(ctxWithUser("s1", "42"))
	require.NoError(t, err)

	// A different session for a different user must resolve upstream even
	// though an entry for s1 exists.
	source.ident = Identity{ID: "7", Role: RoleConsultant}
	other, err := cached.Resolve(ctxWithUser("s2", "7"))
	require.NoError(t, err)

	assert.Equal(t, "7", other.ID)
	assert.Equal(t, 2, source.calls)
}

// A stale cache entry written for another user under the same session key is
// ignored when it does not match the session's current user.
func TestCachedResolveRejectsMismatchedEntry(t *testing.T) {
	who := Identity{ID: "42", Role: RoleAdmin}
	cached, source, _ := newCacheFixture(t, who)

	_, err := cached.Resolve(ctxWithUser("s1", "42"))
	require.NoError(t, err)

	source.ident = Identity{ID: "7", Role: RoleConsultant}
	ident, err := cached.Resolve(ctxWithUser("s1", "7"))
	require.NoError(t, err)

	assert.Equal(t, "7", ident.ID)
	assert.Equal(t, 2, source.calls)
}

func TestInvalidateDropsSessionEntry(t *testing.T) {
	who := Identity{ID: "42", Role: RoleAdmin}
	cached, source, _ := newCacheFixture(t, who)
	ctx := ctxWithUser("s1", "42")

	_, err := cached.Resolve(ctx)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx, "s1"))

	_, err = cached.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

// Role changes invalidate every session of the affected user so the new role
// takes effect without waiting for the TTL.
func TestInvalidateUserDropsAllSessions(t *testing.T) {
	who := Identity{ID: "42", Role: RoleConsultant}
	cached, source, _ := newCacheFixture(t, who)

	_, err := cached.Resolve(ctxWithUser("s1", "42"))
	require.NoError(t, err)
	_, err = cached.Resolve(ctxWithUser("s2", "42"))
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)

	require.NoError(t, cached.InvalidateUser(context.Background(), "42"))
	source.ident = Identity{ID: "42", Role: RoleDirector}

	refreshed, err := cached.Resolve(ctxWithUser("s1", "42"))
	require.NoError(t, err)
	assert.Equal(t, RoleDirector, refreshed.Role)
	assert.Equal(t, 3, source.calls)
}

func TestCacheEntriesExpire(t *testing.T) {
	who := Identity{ID: "42", Role: RoleAdmin}
	cached, source, mr := newCacheFixture(t, who)
	ctx := ctxWithUser("s1", "42")

	_, err := cached.Resolve(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cached.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
