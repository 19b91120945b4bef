package supabase

import (
	"context"
	"fmt"

	"github.com/khalilvb06/ecm/internal/domain"
)

// ============================================================
// Shipping — per-tenant price rows joined with global states
// ============================================================

// shippingRow maps the PostgREST embed of store_shipping_prices with the
// global state name resolved.
type shippingRow struct {
	StateID             int64         `json:"state_id"`
	HomeDeliveryPrice   domain.Dinars `json:"home_delivery_price"`
	OfficeDeliveryPrice domain.Dinars `json:"office_delivery_price"`
	IsAvailable         domain.Truthy `json:"is_available"`
	ShippingState       *struct {
		ID        int64  `json:"id"`
		StateName string `json:"state_name"`
	} `json:"shipping_states"`
}

// ListShippingOptions returns the store's priced regions with state names.
// A region absent from this list has no price row and is not orderable.
func (c *Client) ListShippingOptions(ctx context.Context, storeID int64) ([]domain.ShippingOption, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListShippingOptions")
	defer span.End()

	path := fmt.Sprintf("store_shipping_prices?store_id=eq.%d&select=state_id,home_delivery_price,office_delivery_price,is_available,shipping_states(id,state_name)&order=state_id.asc",
		storeID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}

	rows, err := decodeRows[shippingRow](body, "store_shipping_prices")
	if err != nil {
		return nil, c.external(err)
	}

	options := make([]domain.ShippingOption, 0, len(rows))
	for _, r := range rows {
		name := ""
		if r.ShippingState != nil {
			name = r.ShippingState.StateName
		}
		options = append(options, domain.ShippingOption{
			StateID:     r.StateID,
			StateName:   name,
			HomePrice:   r.HomeDeliveryPrice,
			OfficePrice: r.OfficeDeliveryPrice,
			IsAvailable: bool(r.IsAvailable),
		})
	}
	return options, nil
}

// ListShippingStates returns the platform-global region list.
func (c *Client) ListShippingStates(ctx context.Context) ([]domain.ShippingState, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListShippingStates")
	defer span.End()

	body, err := c.doGet(ctx, "shipping_states?select=id,state_name&order=id.asc")
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.ShippingState](body, "shipping_states")
	return rows, c.external(err)
}

// UpsertShippingPrice inserts or updates the price row keyed by
// (store_id, state_id).
func (c *Client) UpsertShippingPrice(ctx context.Context, price *domain.StoreShippingPrice) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertShippingPrice")
	defer span.End()

	row := map[string]any{
		"store_id":              price.StoreID,
		"state_id":              price.StateID,
		"home_delivery_price":   price.HomeDeliveryPrice,
		"office_delivery_price": price.OfficeDeliveryPrice,
		"is_available":          bool(price.IsAvailable),
	}
	_, err := c.doPost(ctx, "store_shipping_prices?on_conflict=store_id,state_id", row, "resolution=merge-duplicates")
	return c.external(err)
}

// DeleteShippingPrice removes the row entirely, reverting the region to
// "unset" rather than merely "unavailable".
func (c *Client) DeleteShippingPrice(ctx context.Context, storeID, stateID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteShippingPrice")
	defer span.End()

	path := fmt.Sprintf("store_shipping_prices?store_id=eq.%d&state_id=eq.%d", storeID, stateID)
	return c.external(c.doDelete(ctx, path))
}
