package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/service"
	"github.com/khalilvb06/ecm/internal/tenant"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the application services the router dispatches to.
type Services struct {
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Shipping  *service.ShippingService
	Admin     *service.AdminService
	Dashboard *service.DashboardService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Storefront routes resolve their tenant from the request host; admin routes
// resolve theirs from the authenticated membership.
func NewRouter(svcs Services, resolver *tenant.Resolver, urls *StoreURLs, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		// Tenant storefronts live on arbitrary subdomains, so the origin
		// cannot be pinned to one host.
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Shipping, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Storefront API ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware(resolver, logger))

		r.Get("/store", getStoreHandler(svcs.Catalog, logger))

		r.Get("/products", listProductsHandler(svcs.Catalog, logger))
		r.Get("/products/{productId}", getProductHandler(svcs.Catalog, logger))
		r.Get("/products/{productId}/related", getRelatedProductsHandler(svcs.Catalog, logger))

		r.Get("/categories", listCategoriesHandler(svcs.Catalog, logger))
		r.Get("/categories/{categoryId}/products", listCategoryProductsHandler(svcs.Catalog, logger))

		r.Get("/landing-pages", listLandingPagesHandler(svcs.Catalog, logger))
		r.Get("/landing-pages/{pageId}", getLandingPageHandler(svcs.Catalog, logger))

		r.Get("/pixels/{pixelId}", getPixelHandler(svcs.Catalog, logger))

		r.Get("/shipping-options", listShippingOptionsHandler(svcs.Shipping, logger))
		r.Get("/states/{stateId}/municipalities", listMunicipalitiesHandler(svcs.Shipping, logger))

		r.Post("/orders/quote", quoteOrderHandler(svcs.Orders, logger))
		r.Post("/orders", submitOrderHandler(svcs.Orders, logger))
	})

	// --- Admin API ---
	r.Route("/admin/v1", func(r chi.Router) {
		// Public: the login page must stay reachable without a session.
		r.Post("/login", loginHandler(svcs.Admin, urls, logger))
		r.Get("/pages/{page}/access", pageAccessHandler(svcs.Admin, logger))

		// Guarded back office.
		r.Group(func(r chi.Router) {
			r.Use(GuardMiddleware(svcs.Admin, logger))

			r.Post("/logout", logoutHandler(svcs.Admin, logger))

			r.Get("/store", adminStoreHandler(svcs.Admin, urls, logger))
			r.Post("/store/refresh", adminStoreRefreshHandler(resolver, urls, logger))

			r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))
			r.Get("/orders", adminListOrdersHandler(svcs.Admin, urls, logger))
			r.Get("/landing-pages", adminListLandingPagesHandler(svcs.Catalog, urls, logger))

			r.Get("/categories", adminListCategoriesHandler(svcs.Admin, logger))
			r.Post("/categories", adminCreateCategoryHandler(svcs.Admin, logger))
			r.Patch("/categories/{categoryId}", adminUpdateCategoryHandler(svcs.Admin, logger))
			r.Delete("/categories/{categoryId}", adminDeleteCategoryHandler(svcs.Admin, logger))

			r.Get("/shipping-prices", adminShippingOverviewHandler(svcs.Shipping, logger))
			r.Put("/shipping-prices/{stateId}", adminSetShippingPriceHandler(svcs.Shipping, logger))
			r.Delete("/shipping-prices/{stateId}", adminUnsetShippingPriceHandler(svcs.Shipping, logger))
		})
	})

	return r
}

// pageAccessHandler answers the back office's pre-render check for one page.
// Unguarded pages (login) answer immediately; guarded pages run the full
// guard so the client learns whether to render or redirect.
func pageAccessHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/pages/{page}/access")
		defer span.End()

		page := chi.URLParam(r, "page")
		if !service.RequiresAuth(page) {
			writeJSON(w, http.StatusOK, map[string]any{"guarded": false})
			return
		}

		membership, err := adminSvc.Authenticate(ctx, bearerToken(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"guarded":    true,
			"membership": membership,
		})
	}
}

// healthzHandler reports the service and its Supabase dependency. The probe
// reads the global region list, the cheapest query the schema offers.
func healthzHandler(shippingSvc *service.ShippingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := "healthy"
		supabaseStatus := "healthy"

		start := time.Now()
		if _, err := shippingSvc.ListStates(ctx); err != nil {
			supabaseStatus = "degraded"
			status = "degraded"
			logger.Warn("healthz: supabase probe failed", zap.Error(err))
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": status,
			"services": []map[string]any{
				{"name": "ecm-api", "status": "healthy"},
				{"name": "supabase", "status": supabaseStatus, "latency_ms": time.Since(start).Milliseconds()},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
