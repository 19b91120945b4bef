// Package port defines the interfaces between services and their
// collaborators (Supabase stores, identity provider, blob storage, cache).
package port

import (
	"context"
	"io"

	"github.com/khalilvb06/ecm/internal/domain"
)

// TenantStore resolves tenant records.
type TenantStore interface {
	// GetActiveStoreBySubdomain returns the unique active store for a
	// subdomain label, or nil when none matches.
	GetActiveStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error)
	GetStore(ctx context.Context, storeID int64) (*domain.Store, error)
}

// MembershipStore resolves an identity subject's tenant membership.
type MembershipStore interface {
	// GetMembership returns the store_users row (with the store embedded)
	// for a user, or nil when the user belongs to no store.
	GetMembership(ctx context.Context, userID string) (*domain.StoreMembership, error)
}

// CatalogStore covers tenant-scoped storefront reads. Every query filters on
// store_id; listings additionally filter on availability.
type CatalogStore interface {
	ListProducts(ctx context.Context, storeID int64, offset, limit int) ([]domain.Product, error)
	GetProduct(ctx context.Context, storeID, productID int64) (*domain.Product, error)
	ListRelatedProducts(ctx context.Context, storeID, categoryID, excludeID int64, limit int) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, storeID, categoryID int64, offset, limit int) ([]domain.Product, error)
	ListCategories(ctx context.Context, storeID int64) ([]domain.Category, error)
	GetCategory(ctx context.Context, storeID, categoryID int64) (*domain.Category, error)
	ListLandingPages(ctx context.Context, storeID int64, limit int) ([]domain.LandingPage, error)
	GetLandingPage(ctx context.Context, storeID, pageID int64) (*domain.LandingPage, error)
	GetStoreSettings(ctx context.Context, storeID int64) (*domain.StoreSettings, error)
	GetAdPixel(ctx context.Context, pixelID int64) (*domain.AdPixel, error)

	CountProducts(ctx context.Context, storeID int64) (int64, error)
	CountProductsInCategory(ctx context.Context, storeID, categoryID int64) (int64, error)
	CountCategories(ctx context.Context, storeID int64) (int64, error)
	CountAdPixels(ctx context.Context, storeID int64) (int64, error)
}

// AdminCatalogStore covers back-office category mutations.
type AdminCatalogStore interface {
	CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, storeID, categoryID int64, fields map[string]any) error
	DeleteCategory(ctx context.Context, storeID, categoryID int64) error
}

// ShippingStore covers per-tenant shipping price rows and the global state
// list.
type ShippingStore interface {
	ListShippingOptions(ctx context.Context, storeID int64) ([]domain.ShippingOption, error)
	ListShippingStates(ctx context.Context) ([]domain.ShippingState, error)
	UpsertShippingPrice(ctx context.Context, price *domain.StoreShippingPrice) error
	DeleteShippingPrice(ctx context.Context, storeID, stateID int64) error
}

// OrderStore persists and lists orders.
type OrderStore interface {
	InsertOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ListOrders(ctx context.Context, storeID int64, offset, limit int) ([]domain.Order, error)
	CountOrders(ctx context.Context, storeID int64) (int64, error)
}

// Identity is the hosted auth collaborator (GoTrue). Session absence is a
// nil user, not an error.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error)
}

// BlobStore is the hosted object storage collaborator.
type BlobStore interface {
	// Upload stores the object under folder and returns its public URL.
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Cache is a generic key-value cache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Clear()
}
