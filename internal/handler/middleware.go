package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/service"
	"github.com/khalilvb06/ecm/internal/tenant"

	"go.uber.org/zap"
)

type contextKey string

const (
	storeIDKey    contextKey = "storeID"
	membershipKey contextKey = "membership"
)

// TenantMiddleware resolves the request host to a store id and injects it
// into the context. Requests whose host resolves to no active store are
// answered with a "store unavailable" state before any handler runs.
func TenantMiddleware(resolver *tenant.Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID, err := resolver.Resolve(r.Context(), r.Host)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			ctx := context.WithValue(r.Context(), storeIDKey, storeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StoreIDFromContext extracts the resolved tenant id from context.
func StoreIDFromContext(ctx context.Context) int64 {
	v, _ := ctx.Value(storeIDKey).(int64)
	return v
}

// GuardMiddleware runs the admin guard on every back-office request and
// injects the verified membership. The tenant scope of admin operations is
// the membership's store, never the request host.
func GuardMiddleware(adminSvc *service.AdminService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			membership, err := adminSvc.Authenticate(r.Context(), token)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			ctx := context.WithValue(r.Context(), membershipKey, membership)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MembershipFromContext extracts the guard-verified membership from context.
func MembershipFromContext(ctx context.Context) *domain.StoreMembership {
	v, _ := ctx.Value(membershipKey).(*domain.StoreMembership)
	return v
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
