package supabase

import (
	"context"
	"fmt"

	"github.com/khalilvb06/ecm/internal/domain"
)

// ============================================================
// Catalog — tenant-scoped storefront reads
// ============================================================

const productColumns = "id,name,descr,price,image,colors,sizes,offers,category_id,available,pixel,store_id,created_at"

// ListProducts returns one page of available products, newest first.
func (c *Client) ListProducts(ctx context.Context, storeID int64, offset, limit int) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()

	path := fmt.Sprintf("products?store_id=eq.%d&available=is.true&select=%s&order=created_at.desc&offset=%d&limit=%d",
		storeID, productColumns, offset, limit)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Product](body, "products")
	return rows, c.external(err)
}

// GetProduct fetches one product by id within the tenant scope. No
// availability filter: product pages stay reachable for direct links while
// the listing hides them.
func (c *Client) GetProduct(ctx context.Context, storeID, productID int64) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProduct")
	defer span.End()

	path := fmt.Sprintf("products?id=eq.%d&store_id=eq.%d&select=%s&limit=1", productID, storeID, productColumns)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Product](body, "products")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "product", ID: fmt.Sprint(productID)}
	}
	return &rows[0], nil
}

// ListRelatedProducts returns available products sharing a category,
// excluding the product being viewed.
func (c *Client) ListRelatedProducts(ctx context.Context, storeID, categoryID, excludeID int64, limit int) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRelatedProducts")
	defer span.End()

	path := fmt.Sprintf("products?store_id=eq.%d&category_id=eq.%d&id=neq.%d&available=is.true&select=%s&limit=%d",
		storeID, categoryID, excludeID, productColumns, limit)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Product](body, "products")
	return rows, c.external(err)
}

// ListProductsByCategory returns one page of available products in a category.
func (c *Client) ListProductsByCategory(ctx context.Context, storeID, categoryID int64, offset, limit int) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProductsByCategory")
	defer span.End()

	path := fmt.Sprintf("products?store_id=eq.%d&category_id=eq.%d&available=is.true&select=%s&order=created_at.desc&offset=%d&limit=%d",
		storeID, categoryID, productColumns, offset, limit)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Product](body, "products")
	return rows, c.external(err)
}

// ListCategories returns every category of the store.
func (c *Client) ListCategories(ctx context.Context, storeID int64) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	path := fmt.Sprintf("categories?store_id=eq.%d&select=id,name,image_url,store_id&order=id.asc", storeID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Category](body, "categories")
	return rows, c.external(err)
}

// GetCategory fetches one category within the tenant scope.
func (c *Client) GetCategory(ctx context.Context, storeID, categoryID int64) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCategory")
	defer span.End()

	path := fmt.Sprintf("categories?id=eq.%d&store_id=eq.%d&limit=1", categoryID, storeID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Category](body, "categories")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "category", ID: fmt.Sprint(categoryID)}
	}
	return &rows[0], nil
}

// ListLandingPages returns the newest available landing pages.
func (c *Client) ListLandingPages(ctx context.Context, storeID int64, limit int) ([]domain.LandingPage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLandingPages")
	defer span.End()

	path := fmt.Sprintf("landing_pages?store_id=eq.%d&available=is.true&order=created_at.desc&limit=%d", storeID, limit)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.LandingPage](body, "landing_pages")
	return rows, c.external(err)
}

// GetLandingPage fetches one landing page within the tenant scope.
func (c *Client) GetLandingPage(ctx context.Context, storeID, pageID int64) (*domain.LandingPage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLandingPage")
	defer span.End()

	path := fmt.Sprintf("landing_pages?id=eq.%d&store_id=eq.%d&limit=1", pageID, storeID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.LandingPage](body, "landing_pages")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "landing_page", ID: fmt.Sprint(pageID)}
	}
	return &rows[0], nil
}

// GetStoreSettings returns the store's appearance row, or nil when unset.
func (c *Client) GetStoreSettings(ctx context.Context, storeID int64) (*domain.StoreSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetStoreSettings")
	defer span.End()

	path := fmt.Sprintf("store_settings?store_id=eq.%d&limit=1", storeID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.StoreSettings](body, "store_settings")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetAdPixel fetches one ad pixel row. The table is platform-global.
func (c *Client) GetAdPixel(ctx context.Context, pixelID int64) (*domain.AdPixel, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAdPixel")
	defer span.End()

	path := fmt.Sprintf("ad_pixels?id=eq.%d&select=id,pixel_name,pixel_code&limit=1", pixelID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.AdPixel](body, "ad_pixels")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "ad_pixel", ID: fmt.Sprint(pixelID)}
	}
	return &rows[0], nil
}

// ============================================================
// Counts (dashboard)
// ============================================================

func (c *Client) CountProducts(ctx context.Context, storeID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountProducts")
	defer span.End()

	n, err := c.doCount(ctx, fmt.Sprintf("products?store_id=eq.%d&select=id", storeID))
	return n, c.external(err)
}

func (c *Client) CountProductsInCategory(ctx context.Context, storeID, categoryID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountProductsInCategory")
	defer span.End()

	n, err := c.doCount(ctx, fmt.Sprintf("products?store_id=eq.%d&category_id=eq.%d&select=id", storeID, categoryID))
	return n, c.external(err)
}

func (c *Client) CountCategories(ctx context.Context, storeID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountCategories")
	defer span.End()

	n, err := c.doCount(ctx, fmt.Sprintf("categories?store_id=eq.%d&select=id", storeID))
	return n, c.external(err)
}

func (c *Client) CountAdPixels(ctx context.Context, storeID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountAdPixels")
	defer span.End()

	n, err := c.doCount(ctx, fmt.Sprintf("ad_pixels?store_id=eq.%d&select=id", storeID))
	return n, c.external(err)
}

// ============================================================
// Categories — back-office mutations
// ============================================================

// CreateCategory inserts a category row and returns the representation.
func (c *Client) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategory")
	defer span.End()

	row := map[string]any{
		"name":      cat.Name,
		"image_url": cat.ImageURL,
		"store_id":  cat.StoreID,
	}
	body, err := c.doPost(ctx, "categories", row, "")
	if err != nil {
		return nil, c.external(err)
	}

	rows, err := decodeRows[domain.Category](body, "categories")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, c.external(fmt.Errorf("no result from categories insert"))
	}
	return &rows[0], nil
}

// UpdateCategory patches the given fields on a category within the tenant
// scope.
func (c *Client) UpdateCategory(ctx context.Context, storeID, categoryID int64, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCategory")
	defer span.End()

	path := fmt.Sprintf("categories?id=eq.%d&store_id=eq.%d", categoryID, storeID)
	return c.external(c.doPatch(ctx, path, fields))
}

// DeleteCategory removes a category row within the tenant scope.
func (c *Client) DeleteCategory(ctx context.Context, storeID, categoryID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	path := fmt.Sprintf("categories?id=eq.%d&store_id=eq.%d", categoryID, storeID)
	return c.external(c.doDelete(ctx, path))
}
