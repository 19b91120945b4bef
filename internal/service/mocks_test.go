package service_test

import (
	"context"
	"io"

	"github.com/khalilvb06/ecm/internal/domain"
)

// --- Mocks shared across the service tests ---

type mockCatalog struct {
	products   map[int64]*domain.Product
	categories []domain.Category
	pages      []domain.LandingPage
	settings   *domain.StoreSettings
	pixel      *domain.AdPixel
	err        error

	productCount  int64
	categoryCount int64
	pixelCount    int64
}

func (m *mockCatalog) ListProducts(_ context.Context, _ int64, offset, limit int) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, _ int64, productID int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[productID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "product"}
	}
	return p, nil
}

func (m *mockCatalog) ListRelatedProducts(_ context.Context, _ int64, _, excludeID int64, _ int) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Product{}
	for id, p := range m.products {
		if id != excludeID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListProductsByCategory(ctx context.Context, storeID, _ int64, offset, limit int) ([]domain.Product, error) {
	return m.ListProducts(ctx, storeID, offset, limit)
}

func (m *mockCatalog) ListCategories(_ context.Context, _ int64) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCatalog) GetCategory(_ context.Context, _ int64, categoryID int64) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.categories {
		if m.categories[i].ID == categoryID {
			return &m.categories[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "category"}
}

func (m *mockCatalog) ListLandingPages(_ context.Context, _ int64, _ int) ([]domain.LandingPage, error) {
	return m.pages, m.err
}

func (m *mockCatalog) GetLandingPage(_ context.Context, _ int64, pageID int64) (*domain.LandingPage, error) {
	for i := range m.pages {
		if m.pages[i].ID == pageID {
			return &m.pages[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "landing_page"}
}

func (m *mockCatalog) GetStoreSettings(_ context.Context, _ int64) (*domain.StoreSettings, error) {
	return m.settings, m.err
}

func (m *mockCatalog) GetAdPixel(_ context.Context, _ int64) (*domain.AdPixel, error) {
	if m.pixel == nil {
		return nil, &domain.ErrNotFound{Resource: "ad_pixel"}
	}
	return m.pixel, nil
}

func (m *mockCatalog) CountProducts(_ context.Context, _ int64) (int64, error) {
	return m.productCount, m.err
}

func (m *mockCatalog) CountProductsInCategory(_ context.Context, _, _ int64) (int64, error) {
	return m.productCount, m.err
}

func (m *mockCatalog) CountCategories(_ context.Context, _ int64) (int64, error) {
	return m.categoryCount, m.err
}

func (m *mockCatalog) CountAdPixels(_ context.Context, _ int64) (int64, error) {
	return m.pixelCount, m.err
}

type mockShipping struct {
	options []domain.ShippingOption
	states  []domain.ShippingState
	err     error

	upserted []domain.StoreShippingPrice
	deleted  []int64
}

func (m *mockShipping) ListShippingOptions(_ context.Context, _ int64) ([]domain.ShippingOption, error) {
	return m.options, m.err
}

func (m *mockShipping) ListShippingStates(_ context.Context) ([]domain.ShippingState, error) {
	return m.states, m.err
}

func (m *mockShipping) UpsertShippingPrice(_ context.Context, price *domain.StoreShippingPrice) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, *price)
	return nil
}

func (m *mockShipping) DeleteShippingPrice(_ context.Context, _, stateID int64) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, stateID)
	return nil
}

type mockOrders struct {
	inserted []*domain.Order
	listed   []domain.Order
	count    int64
	err      error
}

func (m *mockOrders) InsertOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	stored := *order
	stored.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, &stored)
	return &stored, nil
}

func (m *mockOrders) ListOrders(_ context.Context, _ int64, _, _ int) ([]domain.Order, error) {
	return m.listed, m.err
}

func (m *mockOrders) CountOrders(_ context.Context, _ int64) (int64, error) {
	return m.count, m.err
}

type mockIdentity struct {
	session *domain.Session
	user    *domain.AuthUser
	signIn  error
	getUser error

	signedOut []string
}

func (m *mockIdentity) SignIn(_ context.Context, _, _ string) (*domain.Session, error) {
	return m.session, m.signIn
}

func (m *mockIdentity) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return nil
}

func (m *mockIdentity) GetUser(ctx context.Context, _ string) (*domain.AuthUser, error) {
	if m.getUser != nil {
		return nil, m.getUser
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return m.user, nil
}

type mockMembers struct {
	membership *domain.StoreMembership
	err        error
}

func (m *mockMembers) GetMembership(_ context.Context, _ string) (*domain.StoreMembership, error) {
	return m.membership, m.err
}

type mockTenants struct {
	store *domain.Store
	err   error
}

func (m *mockTenants) GetActiveStoreBySubdomain(_ context.Context, _ string) (*domain.Store, error) {
	return m.store, m.err
}

func (m *mockTenants) GetStore(_ context.Context, storeID int64) (*domain.Store, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.store == nil || m.store.ID != storeID {
		return nil, &domain.ErrNotFound{Resource: "store"}
	}
	return m.store, nil
}

type mockAdminCatalog struct {
	created *domain.Category
	err     error

	updates map[int64]map[string]any
	deleted []int64
}

func (m *mockAdminCatalog) CreateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := *cat
	out.ID = 10
	m.created = &out
	return &out, nil
}

func (m *mockAdminCatalog) UpdateCategory(_ context.Context, _, categoryID int64, fields map[string]any) error {
	if m.err != nil {
		return m.err
	}
	if m.updates == nil {
		m.updates = map[int64]map[string]any{}
	}
	m.updates[categoryID] = fields
	return nil
}

func (m *mockAdminCatalog) DeleteCategory(_ context.Context, _, categoryID int64) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, categoryID)
	return nil
}

type mockBlob struct {
	uploadErr error
	deleteErr error

	uploads []string
	deletes []string
}

func (m *mockBlob) Upload(_ context.Context, folder, filename, _ string, _ io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	url := "https://blob.example.com/" + folder + "/" + filename
	m.uploads = append(m.uploads, url)
	return url, nil
}

func (m *mockBlob) Delete(_ context.Context, url string) error {
	m.deletes = append(m.deletes, url)
	return m.deleteErr
}
