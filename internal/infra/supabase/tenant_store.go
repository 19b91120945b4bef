package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/khalilvb06/ecm/internal/domain"
)

// ============================================================
// Stores and memberships
// ============================================================

// GetActiveStoreBySubdomain returns the unique active store for a subdomain,
// or nil when none matches.
func (c *Client) GetActiveStoreBySubdomain(ctx context.Context, subdomain string) (*domain.Store, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetActiveStoreBySubdomain")
	defer span.End()

	path := fmt.Sprintf("stores?subdomain=eq.%s&is_active=is.true&select=id,name,subdomain,is_active&limit=1",
		url.QueryEscape(subdomain))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}

	rows, err := decodeRows[domain.Store](body, "stores")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetStore fetches one store row by id.
func (c *Client) GetStore(ctx context.Context, storeID int64) (*domain.Store, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetStore")
	defer span.End()

	path := fmt.Sprintf("stores?id=eq.%d&limit=1", storeID)
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}

	rows, err := decodeRows[domain.Store](body, "stores")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "store", ID: fmt.Sprint(storeID)}
	}
	return &rows[0], nil
}

// GetMembership returns the store_users row for a user with the store row
// embedded, or nil when the user administers no store.
func (c *Client) GetMembership(ctx context.Context, userID string) (*domain.StoreMembership, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetMembership")
	defer span.End()

	path := fmt.Sprintf("store_users?user_id=eq.%s&select=user_id,store_id,role,stores(id,name,subdomain,is_active)&limit=1",
		url.QueryEscape(userID))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, c.external(err)
	}

	rows, err := decodeRows[domain.StoreMembership](body, "store_users")
	if err != nil {
		return nil, c.external(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
