package tenant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/cache"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTenantStore struct {
	stores map[string]*domain.Store
	err    error
	calls  int
}

func (m *mockTenantStore) GetActiveStoreBySubdomain(_ context.Context, subdomain string) (*domain.Store, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.stores[subdomain], nil
}

func (m *mockTenantStore) GetStore(_ context.Context, storeID int64) (*domain.Store, error) {
	return nil, &domain.ErrNotFound{Resource: "store"}
}

func newResolver(store *mockTenantStore) *tenant.Resolver {
	return tenant.NewResolver(store, cache.New[int64](0), "localhost", observability.NewMetrics(), zap.NewNop())
}

func TestResolver_Memoizes(t *testing.T) {
	store := &mockTenantStore{stores: map[string]*domain.Store{
		"shop": {ID: 42, Subdomain: "shop", IsActive: true},
	}}
	r := newResolver(store)

	for i := 0; i < 5; i++ {
		id, err := r.Resolve(context.Background(), "shop.dzshops.com")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	}
	assert.Equal(t, 1, store.calls, "repeated resolution must hit the store once")
}

func TestResolver_NegativeCaching(t *testing.T) {
	store := &mockTenantStore{stores: map[string]*domain.Store{}}
	r := newResolver(store)

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "ghost.dzshops.com")
		var scope *domain.ErrScopeUnresolved
		require.ErrorAs(t, err, &scope)
	}
	assert.Equal(t, 1, store.calls, "dead subdomains are memoized too")
}

func TestResolver_FailsClosedOnLookupError(t *testing.T) {
	store := &mockTenantStore{err: errors.New("connection refused")}
	r := newResolver(store)

	_, err := r.Resolve(context.Background(), "shop.dzshops.com")
	var scope *domain.ErrScopeUnresolved
	require.ErrorAs(t, err, &scope)
}

func TestResolver_NoSubdomainNoTenant(t *testing.T) {
	store := &mockTenantStore{}
	r := newResolver(store)

	_, err := r.Resolve(context.Background(), "dzshops.com")
	var scope *domain.ErrScopeUnresolved
	require.ErrorAs(t, err, &scope)
	assert.Equal(t, 0, store.calls, "hosts without a label never reach the store")
}

func TestResolver_Invalidate(t *testing.T) {
	store := &mockTenantStore{stores: map[string]*domain.Store{
		"shop": {ID: 42, Subdomain: "shop", IsActive: true},
	}}
	r := newResolver(store)

	_, err := r.Resolve(context.Background(), "shop.dzshops.com")
	require.NoError(t, err)

	r.Invalidate("shop.dzshops.com")

	_, err = r.Resolve(context.Background(), "shop.dzshops.com")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls, "invalidation forces a fresh lookup")
}

func TestResolver_InvalidateAll(t *testing.T) {
	store := &mockTenantStore{stores: map[string]*domain.Store{
		"a": {ID: 1, Subdomain: "a", IsActive: true},
		"b": {ID: 2, Subdomain: "b", IsActive: true},
	}}
	r := newResolver(store)

	_, _ = r.Resolve(context.Background(), "a.dzshops.com")
	_, _ = r.Resolve(context.Background(), "b.dzshops.com")
	r.InvalidateAll()
	_, _ = r.Resolve(context.Background(), "a.dzshops.com")
	_, _ = r.Resolve(context.Background(), "b.dzshops.com")

	assert.Equal(t, 4, store.calls)
}
