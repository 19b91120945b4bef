package tenant

import (
	"context"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("tenant")

// noTenant is the cached marker for a subdomain with no active store.
// Negative results are memoized too, so repeated requests for a dead
// subdomain do not hit the store collaborator.
const noTenant int64 = 0

// Resolver maps a request host to a store id. Results are memoized per
// subdomain in an injected cache (no TTL) until explicitly invalidated —
// an explicit dependency rather than a module global, so tests stay free of
// cross-test leakage.
type Resolver struct {
	store     port.TenantStore
	cache     port.Cache[int64]
	localRoot string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewResolver creates a resolver. The cache should be built with expiry
// disabled; invalidation is explicit.
func NewResolver(store port.TenantStore, cache port.Cache[int64], localRoot string, metrics *observability.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:     store,
		cache:     cache,
		localRoot: localRoot,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve returns the effective tenant id for a request host. Any lookup
// failure is swallowed and treated identically to "tenant not found":
// callers must render a "store unavailable" state rather than proceeding
// with undefined scope.
func (r *Resolver) Resolve(ctx context.Context, host string) (int64, error) {
	sub := SubdomainFromHost(host, r.localRoot)
	if sub == "" {
		return 0, &domain.ErrScopeUnresolved{Host: host}
	}

	if id, ok := r.cache.Get(sub); ok {
		r.metrics.IncrCacheHit("tenant")
		if id == noTenant {
			return 0, &domain.ErrScopeUnresolved{Host: host}
		}
		return id, nil
	}
	r.metrics.IncrCacheMiss("tenant")

	ctx, span := tracer.Start(ctx, "Tenant.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.subdomain", sub))

	store, err := r.store.GetActiveStoreBySubdomain(ctx, sub)
	if err != nil {
		// Fail closed: cache the negative and report unresolved scope.
		r.logger.Warn("tenant: store lookup failed",
			zap.String("subdomain", sub),
			zap.Error(err),
		)
		r.cache.Set(sub, noTenant)
		return 0, &domain.ErrScopeUnresolved{Host: host}
	}
	if store == nil {
		r.cache.Set(sub, noTenant)
		return 0, &domain.ErrScopeUnresolved{Host: host}
	}

	r.cache.Set(sub, store.ID)
	return store.ID, nil
}

// Invalidate drops the memoized result for one host.
func (r *Resolver) Invalidate(host string) {
	if sub := SubdomainFromHost(host, r.localRoot); sub != "" {
		r.cache.Delete(sub)
	}
}

// InvalidateAll drops every memoized result.
func (r *Resolver) InvalidateAll() {
	r.cache.Clear()
}
