package service

import (
	"context"
	"sort"

	"github.com/khalilvb06/ecm/internal/domain"
	"github.com/khalilvb06/ecm/internal/geo"
	"github.com/khalilvb06/ecm/internal/port"

	"go.uber.org/zap"
)

// ShippingService serves the storefront region selector and the back-office
// pricing screen.
type ShippingService struct {
	shipping port.ShippingStore
	logger   *zap.Logger
}

// NewShippingService creates a shipping service.
func NewShippingService(shipping port.ShippingStore, logger *zap.Logger) *ShippingService {
	return &ShippingService{shipping: shipping, logger: logger}
}

// ListOptions returns the store's priced regions. Unavailable rows are kept
// so the storefront can show them disabled instead of hiding them.
func (s *ShippingService) ListOptions(ctx context.Context, storeID int64) ([]domain.ShippingOption, error) {
	ctx, span := tracer.Start(ctx, "Shipping.ListOptions")
	defer span.End()

	return s.shipping.ListShippingOptions(ctx, storeID)
}

// ListStates returns the platform-global region list. Also used as the
// health probe: it is the cheapest query the schema offers.
func (s *ShippingService) ListStates(ctx context.Context) ([]domain.ShippingState, error) {
	ctx, span := tracer.Start(ctx, "Shipping.ListStates")
	defer span.End()

	return s.shipping.ListShippingStates(ctx)
}

// ListMunicipalities returns the communes of one region from the embedded
// reference dataset.
func (s *ShippingService) ListMunicipalities(stateID int64) []geo.Municipality {
	return geo.ByStateID(stateID)
}

// RegionOverview returns every global region annotated with the store's
// pricing status: unset (no row), available, or unavailable (row switched
// off). The admin screen renders all three distinctly.
func (s *ShippingService) RegionOverview(ctx context.Context, storeID int64) ([]domain.RegionOverview, error) {
	ctx, span := tracer.Start(ctx, "Shipping.RegionOverview")
	defer span.End()

	states, err := s.shipping.ListShippingStates(ctx)
	if err != nil {
		return nil, err
	}
	options, err := s.shipping.ListShippingOptions(ctx, storeID)
	if err != nil {
		return nil, err
	}

	byState := make(map[int64]domain.ShippingOption, len(options))
	for _, o := range options {
		byState[o.StateID] = o
	}

	overview := make([]domain.RegionOverview, 0, len(states))
	for _, st := range states {
		row := domain.RegionOverview{
			StateID:   st.ID,
			StateName: st.StateName,
			Status:    domain.RegionUnset,
		}
		if o, ok := byState[st.ID]; ok {
			row.HomePrice = o.HomePrice
			row.OfficePrice = o.OfficePrice
			if o.IsAvailable {
				row.Status = domain.RegionAvailable
			} else {
				row.Status = domain.RegionUnavailable
			}
		}
		overview = append(overview, row)
	}
	sort.Slice(overview, func(i, j int) bool { return overview[i].StateID < overview[j].StateID })
	return overview, nil
}

// SetRegionPrice inserts or updates the store's price row for one region.
func (s *ShippingService) SetRegionPrice(ctx context.Context, storeID int64, price domain.StoreShippingPrice) error {
	ctx, span := tracer.Start(ctx, "Shipping.SetRegionPrice")
	defer span.End()

	if price.StateID < 1 {
		return &domain.ErrValidation{Field: "state_id", Message: "يرجى اختيار الولاية"}
	}
	if price.HomeDeliveryPrice < 0 || price.OfficeDeliveryPrice < 0 {
		return &domain.ErrValidation{Field: "price", Message: "سعر التوصيل لا يمكن أن يكون سالبًا"}
	}

	price.StoreID = storeID
	if err := s.shipping.UpsertShippingPrice(ctx, &price); err != nil {
		return err
	}
	s.logger.Info("shipping: region price set",
		zap.Int64("store_id", storeID),
		zap.Int64("state_id", price.StateID),
		zap.Bool("available", bool(price.IsAvailable)),
	)
	return nil
}

// UnsetRegion removes the store's price row, reverting the region to the
// unset state rather than merely switching it off.
func (s *ShippingService) UnsetRegion(ctx context.Context, storeID, stateID int64) error {
	ctx, span := tracer.Start(ctx, "Shipping.UnsetRegion")
	defer span.End()

	if err := s.shipping.DeleteShippingPrice(ctx, storeID, stateID); err != nil {
		return err
	}
	s.logger.Info("shipping: region unset",
		zap.Int64("store_id", storeID),
		zap.Int64("state_id", stateID),
	)
	return nil
}
