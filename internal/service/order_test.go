package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/service"

	"go.uber.org/zap"
)

const (
	testStateID        = 16  // الجزائر
	testMunicipalityID = 562 // الجزائر الوسطى
)

func testProduct() *domain.Product {
	return &domain.Product{
		ID:     1,
		Name:   "قميص",
		Price:  2000,
		Images: domain.ImageList{"https://cdn/x.jpg"},
		Colors: domain.ColorList{{Name: "أحمر", Hex: "#f00"}},
		Sizes:  domain.SizeList{"M", "L"},
		Offers: domain.OfferList{{Qty: 3, Price: 4500}},
	}
}

func testShippingOptions() []domain.ShippingOption {
	return []domain.ShippingOption{
		{StateID: testStateID, StateName: "الجزائر", HomePrice: 500, OfficePrice: 300, IsAvailable: true},
		{StateID: 31, StateName: "وهران", HomePrice: 800, OfficePrice: 400, IsAvailable: false},
	}
}

func newOrderService(catalog *mockCatalog, shipping *mockShipping, orders *mockOrders) *service.OrderService {
	return service.NewOrderService(catalog, shipping, orders, 999, zap.NewNop(), observability.NewMetrics())
}

func validRequest() service.OrderRequest {
	return service.OrderRequest{
		ProductID:      1,
		FullName:       "أحمد بن أحمد",
		Phone:          "05 50 12 34 56",
		StateID:        testStateID,
		MunicipalityID: testMunicipalityID,
		DeliveryMethod: "home",
		Color:          "أحمر",
		Size:           "M",
		Quantity:       2,
	}
}

func TestSubmit_Success(t *testing.T) {
	orders := &mockOrders{}
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		orders,
	)

	order, err := svc.Submit(context.Background(), 3, validRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if order.PhoneNumber != "0550123456" {
		t.Errorf("expected normalized phone, got %q", order.PhoneNumber)
	}
	if order.ProductPrice != 4000 {
		t.Errorf("expected products total 4000, got %d", order.ProductPrice)
	}
	if order.ShippingPrice != 500 {
		t.Errorf("expected home shipping 500, got %d", order.ShippingPrice)
	}
	if order.TotalPrice != 4500 {
		t.Errorf("expected total 4500, got %d", order.TotalPrice)
	}
	if order.Address != "الجزائر الوسطى, الجزائر" {
		t.Errorf("unexpected address %q", order.Address)
	}
	if order.ColorHex != "#f00" {
		t.Errorf("expected color hex to be resolved, got %q", order.ColorHex)
	}
	if order.StoreID != 3 {
		t.Errorf("expected store scope 3, got %d", order.StoreID)
	}
	if len(orders.inserted) != 1 {
		t.Fatalf("expected exactly one insert, got %d", len(orders.inserted))
	}
}

func TestSubmit_OfferPinsQuantityAndPrice(t *testing.T) {
	orders := &mockOrders{}
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		orders,
	)

	req := validRequest()
	offerIdx := 0
	req.OfferIndex = &offerIdx
	req.Quantity = 0

	order, err := svc.Submit(context.Background(), 3, req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if order.Quantity != 3 {
		t.Errorf("expected offer quantity 3, got %d", order.Quantity)
	}
	if order.ProductPrice != 4500 {
		t.Errorf("expected flat bundle price 4500, got %d", order.ProductPrice)
	}
	if order.OfferLabel != "3 بسعر 4500" {
		t.Errorf("unexpected offer label %q", order.OfferLabel)
	}
}

func TestSubmit_OfferAndQuantityAreExclusive(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	offerIdx := 0
	req.OfferIndex = &offerIdx
	// Quantity left at 2 alongside the offer.

	_, err := svc.Submit(context.Background(), 3, req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_RejectsInvalidPhone(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	for _, phone := range []string{"0450000000", "055000000", "", "abc"} {
		req := validRequest()
		req.Phone = phone
		_, err := svc.Submit(context.Background(), 3, req)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("phone %q: expected validation error, got %v", phone, err)
		}
	}
}

func TestSubmit_RejectsUnpricedRegion(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	req.StateID = 5 // no price row for this region

	_, err := svc.Submit(context.Background(), 3, req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_RejectsUnavailableRegion(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	req.StateID = 31 // row exists but is switched off
	req.MunicipalityID = 1139

	_, err := svc.Submit(context.Background(), 3, req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_RejectsForeignMunicipality(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	req.MunicipalityID = 1139 // وهران commune, not in الجزائر

	_, err := svc.Submit(context.Background(), 3, req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_VariantRequiredOnlyWhenDeclared(t *testing.T) {
	plain := testProduct()
	plain.Colors = nil
	plain.Sizes = nil

	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: plain}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	req.Color = ""
	req.Size = ""

	if _, err := svc.Submit(context.Background(), 3, req); err != nil {
		t.Fatalf("variantless product must not require choices, got %v", err)
	}
}

func TestSubmit_MissingColorRejected(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	req.Color = ""

	_, err := svc.Submit(context.Background(), 3, req)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_OfficeDeliveryUsesOfficePrice(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{},
	)

	req := validRequest()
	req.DeliveryMethod = "office"

	order, err := svc.Submit(context.Background(), 3, req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if order.ShippingPrice != 300 {
		t.Errorf("expected office price 300, got %d", order.ShippingPrice)
	}
	if order.ShippingType != domain.DeliveryOffice {
		t.Errorf("expected shipping type office, got %s", order.ShippingType)
	}
}

func TestSubmit_InsertFailureSurfaces(t *testing.T) {
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		&mockOrders{err: errors.New("insert failed")},
	)

	if _, err := svc.Submit(context.Background(), 3, validRequest()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestQuote_DoesNotPersist(t *testing.T) {
	orders := &mockOrders{}
	svc := newOrderService(
		&mockCatalog{products: map[int64]*domain.Product{1: testProduct()}},
		&mockShipping{options: testShippingOptions()},
		orders,
	)

	quote, err := svc.Quote(context.Background(), 3, validRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if quote.TotalPrice != 4500 {
		t.Errorf("expected total 4500, got %d", quote.TotalPrice)
	}
	if len(orders.inserted) != 0 {
		t.Fatal("quote must not insert an order")
	}
}
