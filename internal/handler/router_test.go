package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/handler"
	"github.com/khalilvb06/ecm/internal/infra/cache"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/service"
	"github.com/khalilvb06/ecm/internal/tenant"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const routerTestSecret = "router-test-secret"

// --- Port stubs ---

type stubTenant struct {
	stores map[string]*domain.Store
}

func (s *stubTenant) GetActiveStoreBySubdomain(_ context.Context, subdomain string) (*domain.Store, error) {
	return s.stores[subdomain], nil
}

func (s *stubTenant) GetStore(_ context.Context, storeID int64) (*domain.Store, error) {
	for _, store := range s.stores {
		if store.ID == storeID {
			return store, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "store"}
}

type stubCatalog struct {
	product *domain.Product
	pages   []domain.LandingPage
}

func (s *stubCatalog) ListProducts(_ context.Context, _ int64, _, _ int) ([]domain.Product, error) {
	return []domain.Product{*s.product}, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, _ int64, productID int64) (*domain.Product, error) {
	if productID != s.product.ID {
		return nil, &domain.ErrNotFound{Resource: "product"}
	}
	return s.product, nil
}

func (s *stubCatalog) ListRelatedProducts(_ context.Context, _ int64, _, _ int64, _ int) ([]domain.Product, error) {
	return nil, nil
}

func (s *stubCatalog) ListProductsByCategory(_ context.Context, _, _ int64, _, _ int) ([]domain.Product, error) {
	return []domain.Product{*s.product}, nil
}

func (s *stubCatalog) ListCategories(_ context.Context, _ int64) ([]domain.Category, error) {
	return []domain.Category{}, nil
}

func (s *stubCatalog) GetCategory(_ context.Context, _, categoryID int64) (*domain.Category, error) {
	return &domain.Category{ID: categoryID, Name: "فئة"}, nil
}

func (s *stubCatalog) ListLandingPages(_ context.Context, _ int64, _ int) ([]domain.LandingPage, error) {
	return s.pages, nil
}

func (s *stubCatalog) GetLandingPage(_ context.Context, _, _ int64) (*domain.LandingPage, error) {
	return nil, &domain.ErrNotFound{Resource: "landing_page"}
}

func (s *stubCatalog) GetStoreSettings(_ context.Context, _ int64) (*domain.StoreSettings, error) {
	return nil, nil
}

func (s *stubCatalog) GetAdPixel(_ context.Context, _ int64) (*domain.AdPixel, error) {
	return nil, &domain.ErrNotFound{Resource: "ad_pixel"}
}

func (s *stubCatalog) CountProducts(_ context.Context, _ int64) (int64, error)            { return 1, nil }
func (s *stubCatalog) CountProductsInCategory(_ context.Context, _, _ int64) (int64, error) { return 1, nil }
func (s *stubCatalog) CountCategories(_ context.Context, _ int64) (int64, error)          { return 0, nil }
func (s *stubCatalog) CountAdPixels(_ context.Context, _ int64) (int64, error)            { return 0, nil }

type stubAdminCatalog struct{}

func (s *stubAdminCatalog) CreateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	out := *cat
	out.ID = 1
	return &out, nil
}

func (s *stubAdminCatalog) UpdateCategory(_ context.Context, _, _ int64, _ map[string]any) error {
	return nil
}

func (s *stubAdminCatalog) DeleteCategory(_ context.Context, _, _ int64) error { return nil }

type stubShipping struct{}

func (s *stubShipping) ListShippingOptions(_ context.Context, _ int64) ([]domain.ShippingOption, error) {
	return []domain.ShippingOption{
		{StateID: 16, StateName: "الجزائر", HomePrice: 500, OfficePrice: 300, IsAvailable: true},
	}, nil
}

func (s *stubShipping) ListShippingStates(_ context.Context) ([]domain.ShippingState, error) {
	return []domain.ShippingState{{ID: 16, StateName: "الجزائر"}}, nil
}

func (s *stubShipping) UpsertShippingPrice(_ context.Context, _ *domain.StoreShippingPrice) error {
	return nil
}

func (s *stubShipping) DeleteShippingPrice(_ context.Context, _, _ int64) error { return nil }

type stubOrders struct {
	inserted []*domain.Order
	listed   []domain.Order
}

func (s *stubOrders) InsertOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	stored := *order
	stored.ID = 1
	s.inserted = append(s.inserted, &stored)
	return &stored, nil
}

func (s *stubOrders) ListOrders(_ context.Context, _ int64, _, _ int) ([]domain.Order, error) {
	return s.listed, nil
}

func (s *stubOrders) CountOrders(_ context.Context, _ int64) (int64, error) {
	return int64(len(s.listed)), nil
}

type stubIdentity struct {
	user *domain.AuthUser
}

func (s *stubIdentity) SignIn(_ context.Context, _, _ string) (*domain.Session, error) {
	return &domain.Session{AccessToken: "tok", User: s.user}, nil
}

func (s *stubIdentity) SignOut(_ context.Context, _ string) error { return nil }

func (s *stubIdentity) GetUser(_ context.Context, _ string) (*domain.AuthUser, error) {
	return s.user, nil
}

type stubMembers struct {
	membership *domain.StoreMembership
}

func (s *stubMembers) GetMembership(_ context.Context, _ string) (*domain.StoreMembership, error) {
	return s.membership, nil
}

type stubBlob struct{}

func (s *stubBlob) Upload(_ context.Context, folder, filename, _ string, _ io.Reader) (string, error) {
	return "https://blob.example.com/" + folder + "/" + filename, nil
}

func (s *stubBlob) Delete(_ context.Context, _ string) error { return nil }

// --- Fixture wiring ---

type testEnv struct {
	router http.Handler
	orders *stubOrders
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	tenantStore := &stubTenant{stores: map[string]*domain.Store{
		"shop": {ID: 42, Name: "متجر", Subdomain: "shop", IsActive: true},
	}}
	resolver := tenant.NewResolver(tenantStore, cache.New[int64](0), "localhost", metrics, logger)

	catalog := &stubCatalog{
		product: &domain.Product{
			ID:    1,
			Name:  "قميص",
			Price: 2000,
		},
		pages: []domain.LandingPage{{ID: 7, Name: "عرض الصيف", Price: 3000, StoreID: 42}},
	}
	shipping := &stubShipping{}
	orders := &stubOrders{listed: []domain.Order{{ID: 5, ProductID: 1, ProductName: "قميص", StoreID: 42}}}
	identity := &stubIdentity{user: &domain.AuthUser{ID: "user-1"}}
	members := &stubMembers{membership: &domain.StoreMembership{
		UserID:  "user-1",
		StoreID: 42,
		Role:    "owner",
		Store:   &domain.Store{ID: 42, Subdomain: "shop", IsActive: true},
	}}

	svcs := handler.Services{
		Catalog:  service.NewCatalogService(catalog, 12, logger, metrics),
		Orders:   service.NewOrderService(catalog, shipping, orders, 10, logger, metrics),
		Shipping: service.NewShippingService(shipping, logger),
		Admin: service.NewAdminService(
			identity, members, tenantStore, catalog, &stubAdminCatalog{}, orders, &stubBlob{},
			routerTestSecret, time.Second, 12, logger, metrics,
		),
		Dashboard: service.NewDashboardService(catalog, orders, logger, metrics),
	}
	urls := &handler.StoreURLs{Protocol: "https", BaseDomain: "dzshops.com"}

	return &testEnv{
		router: handler.NewRouter(svcs, resolver, urls, metrics, logger),
		orders: orders,
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(routerTestSecret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

// --- Operational endpoints ---

func TestHealthz(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("expected healthy, got %q", body.Status)
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// --- Storefront tenant resolution ---

func TestStorefront_ResolvesTenantFromHost(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Host = "shop.dzshops.com"
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStorefront_UnknownHostIs404(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Host = "ghost.dzshops.com"
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error != "store unavailable" {
		t.Errorf("unexpected error message %q", body.Error)
	}
}

func TestStorefront_SubmitOrderScopedToHostTenant(t *testing.T) {
	env := newTestEnv()

	payload := `{
		"product_id": 1,
		"full_name": "أحمد بن أحمد",
		"phone": "0550123456",
		"state_id": 16,
		"municipality_id": 562,
		"delivery_method": "home",
		"quantity": 2
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(payload))
	req.Host = "shop.dzshops.com"
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.orders.inserted) != 1 {
		t.Fatalf("expected one stored order, got %d", len(env.orders.inserted))
	}
	if env.orders.inserted[0].StoreID != 42 {
		t.Errorf("order must carry the host tenant, got store %d", env.orders.inserted[0].StoreID)
	}
}

// --- Admin guard ---

func TestAdmin_GuardRejectsWithLoginRedirect(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body struct {
		Redirect string `json:"redirect"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Redirect != "/admin/login" {
		t.Errorf("expected login redirect, got %q", body.Redirect)
	}
}

func TestAdmin_GuardAcceptsValidSession(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdmin_StoreInfoCarriesStorefrontURL(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/store", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Store struct {
			ID int64 `json:"id"`
		} `json:"store"`
		StoreURL string `json:"store_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Store.ID != 42 {
		t.Errorf("expected the re-read store row, got id %d", body.Store.ID)
	}
	if body.StoreURL != "https://shop.dzshops.com" {
		t.Errorf("unexpected store url %q", body.StoreURL)
	}
}

func TestAdmin_OrdersCarryProductLinks(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Items []struct {
			ID         int64  `json:"id"`
			ProductURL string `json:"product_url"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Items) != 1 {
		t.Fatalf("expected one order, got %d", len(body.Items))
	}
	if body.Items[0].ProductURL != "https://shop.dzshops.com/products/1" {
		t.Errorf("unexpected product link %q", body.Items[0].ProductURL)
	}
}

func TestAdmin_LandingPagesCarryShareLinks(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/landing-pages", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		LandingPages []struct {
			ID  int64  `json:"id"`
			URL string `json:"url"`
		} `json:"landing_pages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.LandingPages) != 1 {
		t.Fatalf("expected one landing page, got %d", len(body.LandingPages))
	}
	if body.LandingPages[0].URL != "https://shop.dzshops.com/landing/7" {
		t.Errorf("unexpected share link %q", body.LandingPages[0].URL)
	}
}

func TestPageAccess_LoginIsPublic(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/pages/login/access", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Guarded bool `json:"guarded"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Guarded {
		t.Error("login page must not be guarded")
	}
}

func TestPageAccess_GuardedPageRunsTheGuard(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/pages/dashboard/access", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}
}
