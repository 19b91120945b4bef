package service

import (
	"context"
	"strings"
	"time"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/geo"
	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/port"

	"go.uber.org/zap"
)

// OrderService validates and persists storefront orders. An order is one
// insert; all pricing is recomputed server-side from the product row, never
// trusted from the client.
type OrderService struct {
	catalog  port.CatalogStore
	shipping port.ShippingStore
	orders   port.OrderStore
	maxQty   int
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewOrderService creates an order service. maxQty caps the free-quantity
// path; bundle offers carry their own quantity.
func NewOrderService(catalog port.CatalogStore, shipping port.ShippingStore, orders port.OrderStore, maxQty int, logger *zap.Logger, metrics *observability.Metrics) *OrderService {
	return &OrderService{
		catalog:  catalog,
		shipping: shipping,
		orders:   orders,
		maxQty:   maxQty,
		logger:   logger,
		metrics:  metrics,
	}
}

// OrderRequest is the storefront submission payload. OfferIndex and Quantity
// are mutually exclusive; sending both is a validation error.
type OrderRequest struct {
	ProductID      int64  `json:"product_id"`
	FullName       string `json:"full_name"`
	Phone          string `json:"phone"`
	StateID        int64  `json:"state_id"`
	MunicipalityID int64  `json:"municipality_id"`
	DeliveryMethod string `json:"delivery_method"`
	Color          string `json:"color,omitempty"`
	Size           string `json:"size,omitempty"`
	OfferIndex     *int   `json:"offer_index,omitempty"`
	Quantity       int    `json:"quantity,omitempty"`
}

// Quote prices a selection without persisting anything. The storefront calls
// this as the buyer adjusts quantity, offer, region, and delivery method.
func (s *OrderService) Quote(ctx context.Context, storeID int64, req OrderRequest) (*domain.Quote, error) {
	ctx, span := tracer.Start(ctx, "Order.Quote")
	defer span.End()

	product, err := s.catalog.GetProduct(ctx, storeID, req.ProductID)
	if err != nil {
		return nil, err
	}
	sel, err := s.selection(product, req)
	if err != nil {
		return nil, err
	}

	var shippingPrice domain.Dinars
	if req.StateID != 0 {
		option, err := s.regionFor(ctx, storeID, req.StateID)
		if err != nil {
			return nil, err
		}
		shippingPrice = option.PriceFor(sel.DeliveryMethod)
	}

	quote := domain.PriceSelection(product, sel, shippingPrice)
	return &quote, nil
}

// Submit validates the request end to end, prices it, and persists the order
// with denormalized product and location snapshots.
func (s *OrderService) Submit(ctx context.Context, storeID int64, req OrderRequest) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Order.Submit")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("submit_order", time.Since(start)) }()

	order, err := s.compose(ctx, storeID, req)
	if err != nil {
		s.metrics.IncrOrder("rejected")
		return nil, err
	}

	created, err := s.orders.InsertOrder(ctx, order)
	if err != nil {
		s.metrics.IncrOrder("rejected")
		return nil, err
	}

	s.metrics.IncrOrder("accepted")
	s.logger.Info("order: accepted",
		zap.Int64("store_id", storeID),
		zap.Int64("product_id", order.ProductID),
		zap.Int64("total_price", int64(order.TotalPrice)),
	)
	return created, nil
}

func (s *OrderService) compose(ctx context.Context, storeID int64, req OrderRequest) (*domain.Order, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, &domain.ErrValidation{Field: "full_name", Message: "يرجى إدخال الاسم الكامل"}
	}

	phone := domain.NormalizePhone(req.Phone)
	if !domain.ValidPhone(phone) {
		return nil, &domain.ErrValidation{Field: "phone", Message: "يرجى إدخال رقم هاتف صحيح"}
	}

	product, err := s.catalog.GetProduct(ctx, storeID, req.ProductID)
	if err != nil {
		return nil, err
	}

	sel, err := s.selection(product, req)
	if err != nil {
		return nil, err
	}

	// Variant choices are required exactly when the product declares them.
	color, colorHex, err := pickColor(product.Colors, req.Color)
	if err != nil {
		return nil, err
	}
	size, err := pickSize(product.Sizes, req.Size)
	if err != nil {
		return nil, err
	}

	option, err := s.regionFor(ctx, storeID, req.StateID)
	if err != nil {
		return nil, err
	}

	municipality, ok := geo.Find(req.StateID, req.MunicipalityID)
	if !ok {
		return nil, &domain.ErrValidation{Field: "municipality_id", Message: "يرجى اختيار البلدية"}
	}

	quote := domain.PriceSelection(product, sel, option.PriceFor(sel.DeliveryMethod))

	order := &domain.Order{
		ProductID:        product.ID,
		ProductName:      product.Name,
		ProductImage:     product.Images.Primary(),
		FullName:         fullName,
		PhoneNumber:      phone,
		Address:          municipality.Name + ", " + option.StateName,
		StateID:          option.StateID,
		StateName:        option.StateName,
		ShippingType:     sel.DeliveryMethod,
		Color:            color,
		ColorHex:         colorHex,
		Size:             size,
		Quantity:         quote.Units,
		ProductPrice:     quote.ProductsTotal,
		ShippingPrice:    quote.ShippingPrice,
		TotalPrice:       quote.TotalPrice,
		MunicipalityName: municipality.Name,
		StoreID:          storeID,
	}
	if sel.OfferIndex != nil {
		order.OfferLabel = product.Offers[*sel.OfferIndex].Label()
	}
	return order, nil
}

// selection validates the offer/quantity choice and the delivery method.
func (s *OrderService) selection(product *domain.Product, req OrderRequest) (domain.Selection, error) {
	method := domain.DeliveryMethod(req.DeliveryMethod)
	if !method.Valid() {
		return domain.Selection{}, &domain.ErrValidation{Field: "delivery_method", Message: "يرجى اختيار طريقة التوصيل"}
	}

	if req.OfferIndex != nil {
		if req.Quantity > 0 {
			return domain.Selection{}, &domain.ErrValidation{Field: "quantity", Message: "لا يمكن اختيار عرض وكمية معًا"}
		}
		if *req.OfferIndex < 0 || *req.OfferIndex >= len(product.Offers) {
			return domain.Selection{}, &domain.ErrValidation{Field: "offer_index", Message: "العرض المحدد غير موجود"}
		}
		return domain.Selection{OfferIndex: req.OfferIndex, DeliveryMethod: method}, nil
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	if qty > s.maxQty {
		return domain.Selection{}, &domain.ErrValidation{Field: "quantity", Message: "الكمية المطلوبة كبيرة جدًا"}
	}
	return domain.Selection{Quantity: qty, DeliveryMethod: method}, nil
}

// regionFor returns the store's shipping option for a region. A region with
// no price row, or one switched off, is not orderable.
func (s *OrderService) regionFor(ctx context.Context, storeID, stateID int64) (domain.ShippingOption, error) {
	if stateID < 1 {
		return domain.ShippingOption{}, &domain.ErrValidation{Field: "state_id", Message: "يرجى اختيار الولاية"}
	}

	options, err := s.shipping.ListShippingOptions(ctx, storeID)
	if err != nil {
		return domain.ShippingOption{}, err
	}
	for _, o := range options {
		if o.StateID == stateID {
			if !o.IsAvailable {
				return domain.ShippingOption{}, &domain.ErrValidation{Field: "state_id", Message: "التوصيل غير متوفر لهذه الولاية"}
			}
			return o, nil
		}
	}
	return domain.ShippingOption{}, &domain.ErrValidation{Field: "state_id", Message: "التوصيل غير متوفر لهذه الولاية"}
}

func pickColor(colors domain.ColorList, name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if len(colors) == 0 {
		// A color sent for a colorless product is ignored rather than rejected.
		return "", "", nil
	}
	if name == "" {
		return "", "", &domain.ErrValidation{Field: "color", Message: "يرجى اختيار اللون"}
	}
	for _, c := range colors {
		if strings.EqualFold(c.Name, name) {
			return c.Name, c.Hex, nil
		}
	}
	return "", "", &domain.ErrValidation{Field: "color", Message: "اللون المحدد غير متوفر"}
}

func pickSize(sizes domain.SizeList, size string) (string, error) {
	size = strings.TrimSpace(size)
	if len(sizes) == 0 {
		return "", nil
	}
	if size == "" {
		return "", &domain.ErrValidation{Field: "size", Message: "يرجى اختيار المقاس"}
	}
	for _, s := range sizes {
		if strings.EqualFold(s, size) {
			return s, nil
		}
	}
	return "", &domain.ErrValidation{Field: "size", Message: "المقاس المحدد غير متوفر"}
}
