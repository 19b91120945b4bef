package supabase

import (
	"context"
	"fmt"

	"github.com/khalilvb06/ecm/internal/domain"
)

// ============================================================
// Orders — single-insert persistence, admin listing
// ============================================================

// InsertOrder persists one order row. Order capture is a single insert, so
// no multi-step transaction is needed.
func (c *Client) InsertOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertOrder")
	defer span.End()

	row := map[string]any{
		"product_id":        order.ProductID,
		"product_name":      order.ProductName,
		"product_image":     order.ProductImage,
		"full_name":         order.FullName,
		"phone_number":      order.PhoneNumber,
		"address":           order.Address,
		"state_id":          order.StateID,
		"state_name":        order.StateName,
		"shipping_type":     string(order.ShippingType),
		"quantity":          order.Quantity,
		"product_price":     order.ProductPrice,
		"shipping_price":    order.ShippingPrice,
		"total_price":       order.TotalPrice,
		"municipality_name": order.MunicipalityName,
		"store_id":          order.StoreID,
	}
	// Optional columns stay NULL when unset.
	if order.Color != "" {
		row["color"] = order.Color
	}
	if order.ColorHex != "" {
		row["color_hex"] = order.ColorHex
	}
	if order.Size != "" {
		row["size"] = order.Size
	}
	if order.OfferLabel != "" {
		row["offer_label"] = order.OfferLabel
	}

	body, err := c.doPost(ctx, "orders", row, "")
	if err != nil {
		return nil, c.external(err)
	}

	rows, err := decodeRows[domain.Order](body, "orders")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, c.external(fmt.Errorf("no result from orders insert"))
	}
	return &rows[0], nil
}

// ListOrders returns one page of the store's orders, newest first.
func (c *Client) ListOrders(ctx context.Context, storeID int64, offset, limit int) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOrders")
	defer span.End()

	path := fmt.Sprintf("orders?store_id=eq.%d&order=created_at.desc&offset=%d&limit=%d", storeID, offset, limit)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}
	rows, err := decodeRows[domain.Order](body, "orders")
	return rows, c.external(err)
}

// CountOrders returns the store's total order count.
func (c *Client) CountOrders(ctx context.Context, storeID int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountOrders")
	defer span.End()

	n, err := c.doCount(ctx, fmt.Sprintf("orders?store_id=eq.%d&select=id", storeID))
	return n, c.external(err)
}
