package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/khalilvb06/ecm/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Storefront — tenant-scoped public endpoints
// ============================================================

func getStoreHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/store")
		defer span.End()

		storeID := StoreIDFromContext(ctx)
		span.SetAttributes(attribute.Int64("store.id", storeID))

		settings, err := catalogSvc.GetStoreSettings(ctx, storeID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if settings == nil {
			// A store without settings is still browsable; the storefront
			// falls back to defaults.
			writeJSON(w, http.StatusOK, map[string]any{"settings": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	}
}

func listProductsHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/products")
		defer span.End()

		storeID := StoreIDFromContext(ctx)
		page, err := catalogSvc.ListProducts(ctx, storeID, parsePage(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func getProductHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/products/{productId}")
		defer span.End()

		productID, err := parseID(chi.URLParam(r, "productId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("product.id", productID))

		detail, err := catalogSvc.GetProduct(ctx, StoreIDFromContext(ctx), productID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func getRelatedProductsHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/products/{productId}/related")
		defer span.End()

		productID, err := parseID(chi.URLParam(r, "productId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		detail, err := catalogSvc.GetProduct(ctx, StoreIDFromContext(ctx), productID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"related": detail.Related})
	}
}

func listCategoriesHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/categories")
		defer span.End()

		categories, err := catalogSvc.ListCategories(ctx, StoreIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
	}
}

func listCategoryProductsHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/categories/{categoryId}/products")
		defer span.End()

		categoryID, err := parseID(chi.URLParam(r, "categoryId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		category, page, err := catalogSvc.ListCategoryProducts(ctx, StoreIDFromContext(ctx), categoryID, parsePage(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"category": category,
			"products": page,
		})
	}
}

func listLandingPagesHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/landing-pages")
		defer span.End()

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
				limit = n
			}
		}

		pages, err := catalogSvc.ListLandingPages(ctx, StoreIDFromContext(ctx), limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"landing_pages": pages})
	}
}

func getLandingPageHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/landing-pages/{pageId}")
		defer span.End()

		pageID, err := parseID(chi.URLParam(r, "pageId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		page, err := catalogSvc.GetLandingPage(ctx, StoreIDFromContext(ctx), pageID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func getPixelHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/pixels/{pixelId}")
		defer span.End()

		pixelID, err := parseID(chi.URLParam(r, "pixelId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		ids, err := catalogSvc.GetPixelIDs(ctx, pixelID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pixel_ids": ids})
	}
}

func listShippingOptionsHandler(shippingSvc *service.ShippingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/v1/shipping-options")
		defer span.End()

		options, err := shippingSvc.ListOptions(ctx, StoreIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"options": options})
	}
}

func listMunicipalitiesHandler(shippingSvc *service.ShippingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /api/v1/states/{stateId}/municipalities")
		defer span.End()

		stateID, err := parseID(chi.URLParam(r, "stateId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		municipalities := shippingSvc.ListMunicipalities(stateID)
		writeJSON(w, http.StatusOK, map[string]any{"municipalities": municipalities})
	}
}

func quoteOrderHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/v1/orders/quote")
		defer span.End()

		var req service.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		quote, err := orderSvc.Quote(ctx, StoreIDFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}

func submitOrderHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/v1/orders")
		defer span.End()

		var req service.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.Int64("product.id", req.ProductID))

		order, err := orderSvc.Submit(ctx, StoreIDFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}
