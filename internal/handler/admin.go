package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/service"
	"github.com/khalilvb06/ecm/internal/tenant"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxImageUploadBytes caps category image uploads.
const maxImageUploadBytes = 10 << 20

// ============================================================
// Auth
// ============================================================

func loginHandler(adminSvc *service.AdminService, urls *StoreURLs, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin/v1/login")
		defer span.End()

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		session, membership, err := adminSvc.Login(ctx, req.Email, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := map[string]any{
			"session":    session,
			"membership": membership,
		}
		if membership.Store != nil {
			resp["store_url"] = urls.Store(membership.Store.Subdomain)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func logoutHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin/v1/logout")
		defer span.End()

		if err := adminSvc.Logout(ctx, bearerToken(r)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Store
// ============================================================

func adminStoreHandler(adminSvc *service.AdminService, urls *StoreURLs, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/store")
		defer span.End()

		membership := MembershipFromContext(ctx)
		store, err := adminSvc.StoreInfo(ctx, membership.StoreID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"membership": membership,
			"store":      store,
			"store_url":  urls.Store(store.Subdomain),
		})
	}
}

// adminStoreRefreshHandler drops the memoized tenant resolution for the
// membership's store so an out-of-band rename or deactivation takes effect
// without a restart.
func adminStoreRefreshHandler(resolver *tenant.Resolver, urls *StoreURLs, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /admin/v1/store/refresh")
		defer span.End()

		membership := MembershipFromContext(r.Context())
		if membership.Store == nil {
			writeError(w, http.StatusConflict, "membership carries no store record")
			return
		}
		resolver.Invalidate(urls.Host(membership.Store.Subdomain))
		logger.Info("admin: tenant cache invalidated",
			zap.Int64("store_id", membership.StoreID),
			zap.String("subdomain", membership.Store.Subdomain),
		)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Dashboard & orders
// ============================================================

func dashboardHandler(dashSvc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/dashboard")
		defer span.End()

		membership := MembershipFromContext(ctx)
		span.SetAttributes(attribute.Int64("store.id", membership.StoreID))

		overview, err := dashSvc.GetOverview(ctx, membership.StoreID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

// adminOrderRow decorates an order with the public page of the product it
// was placed on, so the back office can jump straight to the storefront.
type adminOrderRow struct {
	domain.Order
	ProductURL string `json:"product_url,omitempty"`
}

func adminListOrdersHandler(adminSvc *service.AdminService, urls *StoreURLs, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/orders")
		defer span.End()

		membership := MembershipFromContext(ctx)
		page, err := adminSvc.ListOrders(ctx, membership.StoreID, parsePage(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		rows := make([]adminOrderRow, len(page.Items))
		for i, order := range page.Items {
			rows[i].Order = order
			if membership.Store != nil {
				rows[i].ProductURL = urls.Product(membership.Store.Subdomain, order.ProductID)
			}
		}
		writeJSON(w, http.StatusOK, service.Page[adminOrderRow]{
			Items:      rows,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalItems: page.TotalItems,
			TotalPages: page.TotalPages,
		})
	}
}

// adminListLandingPagesHandler lists the store's landing pages with their
// public share links for the "copy link" action.
func adminListLandingPagesHandler(catalogSvc *service.CatalogService, urls *StoreURLs, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/landing-pages")
		defer span.End()

		membership := MembershipFromContext(ctx)
		pages, err := catalogSvc.ListLandingPages(ctx, membership.StoreID, 0)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		type landingPageRow struct {
			domain.LandingPage
			URL string `json:"url,omitempty"`
		}
		rows := make([]landingPageRow, len(pages))
		for i, page := range pages {
			rows[i].LandingPage = page
			if membership.Store != nil {
				rows[i].URL = urls.LandingPage(membership.Store.Subdomain, page.ID)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"landing_pages": rows})
	}
}

// ============================================================
// Categories
// ============================================================

func adminListCategoriesHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/categories")
		defer span.End()

		membership := MembershipFromContext(ctx)
		categories, err := adminSvc.ListCategories(ctx, membership.StoreID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
	}
}

func adminCreateCategoryHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin/v1/categories")
		defer span.End()

		name, image, err := parseCategoryForm(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if image != nil {
			defer image.close()
		}

		membership := MembershipFromContext(ctx)
		created, err := adminSvc.CreateCategory(ctx, membership.StoreID, name, image.upload())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func adminUpdateCategoryHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /admin/v1/categories/{categoryId}")
		defer span.End()

		categoryID, err := parseID(chi.URLParam(r, "categoryId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		name, image, err := parseCategoryForm(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if image != nil {
			defer image.close()
		}

		membership := MembershipFromContext(ctx)
		if err := adminSvc.UpdateCategory(ctx, membership.StoreID, categoryID, name, image.upload()); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminDeleteCategoryHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /admin/v1/categories/{categoryId}")
		defer span.End()

		categoryID, err := parseID(chi.URLParam(r, "categoryId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		membership := MembershipFromContext(ctx)
		if err := adminSvc.DeleteCategory(ctx, membership.StoreID, categoryID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// categoryImage bundles the multipart file with its cleanup.
type categoryImage struct {
	up      service.Upload
	cleanup func()
}

func (c *categoryImage) upload() *service.Upload {
	if c == nil {
		return nil
	}
	return &c.up
}

func (c *categoryImage) close() {
	if c != nil && c.cleanup != nil {
		c.cleanup()
	}
}

// parseCategoryForm reads the multipart category payload: a "name" field and
// an optional "image" file.
func parseCategoryForm(r *http.Request) (string, *categoryImage, error) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return "", nil, &domain.ErrValidation{Field: "body", Message: "expected multipart form data"}
	}
	name := strings.TrimSpace(r.FormValue("name"))

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return name, nil, nil
	}
	if err != nil {
		return "", nil, &domain.ErrValidation{Field: "image", Message: "invalid image upload"}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		file.Close()
		return "", nil, &domain.ErrValidation{Field: "image", Message: "file must be an image"}
	}

	return name, &categoryImage{
		up: service.Upload{
			Filename:    header.Filename,
			ContentType: contentType,
			Body:        file,
		},
		cleanup: func() { file.Close() },
	}, nil
}

// ============================================================
// Shipping prices
// ============================================================

func adminShippingOverviewHandler(shippingSvc *service.ShippingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/v1/shipping-prices")
		defer span.End()

		membership := MembershipFromContext(ctx)
		overview, err := shippingSvc.RegionOverview(ctx, membership.StoreID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"regions": overview})
	}
}

func adminSetShippingPriceHandler(shippingSvc *service.ShippingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /admin/v1/shipping-prices/{stateId}")
		defer span.End()

		stateID, err := parseID(chi.URLParam(r, "stateId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var req struct {
			HomeDeliveryPrice   domain.Dinars `json:"home_delivery_price"`
			OfficeDeliveryPrice domain.Dinars `json:"office_delivery_price"`
			IsAvailable         bool          `json:"is_available"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		membership := MembershipFromContext(ctx)
		price := domain.StoreShippingPrice{
			StateID:             stateID,
			HomeDeliveryPrice:   req.HomeDeliveryPrice,
			OfficeDeliveryPrice: req.OfficeDeliveryPrice,
			IsAvailable:         domain.Truthy(req.IsAvailable),
		}
		if err := shippingSvc.SetRegionPrice(ctx, membership.StoreID, price); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminUnsetShippingPriceHandler(shippingSvc *service.ShippingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /admin/v1/shipping-prices/{stateId}")
		defer span.End()

		stateID, err := parseID(chi.URLParam(r, "stateId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		membership := MembershipFromContext(ctx)
		if err := shippingSvc.UnsetRegion(ctx, membership.StoreID, stateID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Tenant-facing URL construction
// ============================================================

// StoreURLs builds public storefront URLs from the platform's base domain.
type StoreURLs struct {
	Protocol   string
	BaseDomain string
}

// Host returns the tenant host for a subdomain, e.g. "shop.dzshops.com".
func (u *StoreURLs) Host(subdomain string) string {
	return fmt.Sprintf("%s.%s", subdomain, u.BaseDomain)
}

// Store returns the tenant's storefront root URL.
func (u *StoreURLs) Store(subdomain string) string {
	return fmt.Sprintf("%s://%s", u.Protocol, u.Host(subdomain))
}

// Product returns the public product page URL for sharing.
func (u *StoreURLs) Product(subdomain string, productID int64) string {
	return fmt.Sprintf("%s/products/%d", u.Store(subdomain), productID)
}

// LandingPage returns the public landing page URL for sharing.
func (u *StoreURLs) LandingPage(subdomain string, pageID int64) string {
	return fmt.Sprintf("%s/landing/%d", u.Store(subdomain), pageID)
}
