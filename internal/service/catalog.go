// Package service implements the application use-cases between the HTTP
// handlers and the collaborator ports. Every operation is tenant-scoped:
// the store id always arrives from the request host via the tenant resolver,
// never from client input.
package service

import (
	"context"
	"time"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

const (
	relatedProductsLimit = 8
	landingPagesLimit    = 8
)

// CatalogService serves storefront reads: products, categories, landing
// pages, and the store's appearance settings.
type CatalogService struct {
	catalog  port.CatalogStore
	pageSize int
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewCatalogService creates a catalog service. pageSize fixes the listing
// page length.
func NewCatalogService(catalog port.CatalogStore, pageSize int, logger *zap.Logger, metrics *observability.Metrics) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		pageSize: pageSize,
		logger:   logger,
		metrics:  metrics,
	}
}

// Page is a paginated listing result.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
}

func newPage[T any](items []T, page, size int, total int64) Page[T] {
	pages := total / int64(size)
	if total%int64(size) != 0 {
		pages++
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: pages,
	}
}

// ProductDetail is the product page payload: the product, its related
// products, and the tracking pixel ids resolved from its pixel reference.
type ProductDetail struct {
	Product  *domain.Product  `json:"product"`
	Related  []domain.Product `json:"related"`
	PixelIDs []string         `json:"pixel_ids,omitempty"`
}

// ListProducts returns one page of the store's available products.
// page is 1-based; out-of-range values clamp to the first page.
func (s *CatalogService) ListProducts(ctx context.Context, storeID int64, page int) (Page[domain.Product], error) {
	ctx, span := tracer.Start(ctx, "Catalog.ListProducts")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("list_products", time.Since(start)) }()

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize

	products, err := s.catalog.ListProducts(ctx, storeID, offset, s.pageSize)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	total, err := s.catalog.CountProducts(ctx, storeID)
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return newPage(products, page, s.pageSize, total), nil
}

// GetProduct returns the product page payload. Related products and pixel
// resolution are best-effort: their failure degrades the page, it does not
// take it down.
func (s *CatalogService) GetProduct(ctx context.Context, storeID, productID int64) (*ProductDetail, error) {
	ctx, span := tracer.Start(ctx, "Catalog.GetProduct")
	defer span.End()

	product, err := s.catalog.GetProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: product, Related: []domain.Product{}}

	if product.CategoryID != 0 {
		related, err := s.catalog.ListRelatedProducts(ctx, storeID, product.CategoryID, product.ID, relatedProductsLimit)
		if err != nil {
			s.logger.Warn("catalog: related products lookup failed",
				zap.Int64("product_id", productID),
				zap.Error(err),
			)
		} else {
			detail.Related = related
		}
	}

	if product.PixelID != 0 {
		pixel, err := s.catalog.GetAdPixel(ctx, product.PixelID)
		if err != nil {
			s.logger.Warn("catalog: pixel lookup failed",
				zap.Int64("pixel_id", product.PixelID),
				zap.Error(err),
			)
		} else if pixel != nil {
			detail.PixelIDs = pixel.PixelIDs()
		}
	}

	return detail, nil
}

// ListCategories returns every category of the store.
func (s *CatalogService) ListCategories(ctx context.Context, storeID int64) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Catalog.ListCategories")
	defer span.End()

	return s.catalog.ListCategories(ctx, storeID)
}

// ListCategoryProducts returns one page of a category's available products,
// with the category itself for the page heading.
func (s *CatalogService) ListCategoryProducts(ctx context.Context, storeID, categoryID int64, page int) (*domain.Category, Page[domain.Product], error) {
	ctx, span := tracer.Start(ctx, "Catalog.ListCategoryProducts")
	defer span.End()

	category, err := s.catalog.GetCategory(ctx, storeID, categoryID)
	if err != nil {
		return nil, Page[domain.Product]{}, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * s.pageSize

	products, err := s.catalog.ListProductsByCategory(ctx, storeID, categoryID, offset, s.pageSize)
	if err != nil {
		return nil, Page[domain.Product]{}, err
	}
	total, err := s.catalog.CountProductsInCategory(ctx, storeID, categoryID)
	if err != nil {
		return nil, Page[domain.Product]{}, err
	}
	return category, newPage(products, page, s.pageSize, total), nil
}

// ListLandingPages returns the store's newest available landing pages.
func (s *CatalogService) ListLandingPages(ctx context.Context, storeID int64, limit int) ([]domain.LandingPage, error) {
	ctx, span := tracer.Start(ctx, "Catalog.ListLandingPages")
	defer span.End()

	if limit < 1 {
		limit = landingPagesLimit
	}
	return s.catalog.ListLandingPages(ctx, storeID, limit)
}

// GetLandingPage returns one landing page within the tenant scope.
func (s *CatalogService) GetLandingPage(ctx context.Context, storeID, pageID int64) (*domain.LandingPage, error) {
	ctx, span := tracer.Start(ctx, "Catalog.GetLandingPage")
	defer span.End()

	return s.catalog.GetLandingPage(ctx, storeID, pageID)
}

// GetPixelIDs resolves the numeric tracking ids behind an ad pixel row.
func (s *CatalogService) GetPixelIDs(ctx context.Context, pixelID int64) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Catalog.GetPixelIDs")
	defer span.End()

	pixel, err := s.catalog.GetAdPixel(ctx, pixelID)
	if err != nil {
		return nil, err
	}
	return pixel.PixelIDs(), nil
}

// GetStoreSettings returns the store's appearance row, or nil when the
// merchant has not customized anything yet.
func (s *CatalogService) GetStoreSettings(ctx context.Context, storeID int64) (*domain.StoreSettings, error) {
	ctx, span := tracer.Start(ctx, "Catalog.GetStoreSettings")
	defer span.End()

	return s.catalog.GetStoreSettings(ctx, storeID)
}
