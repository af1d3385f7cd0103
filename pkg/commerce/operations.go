package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JurgenV1993/BetterRetail/pkg/checkout"
	"github.com/JurgenV1993/BetterRetail/pkg/sitemap"
)

// Client implements the checkout backend boundary.
var _ checkout.Backend = (*Client)(nil)

// GetCart retrieves the current cart for the configured scope.
func (c *Client) GetCart(ctx context.Context) (*checkout.Cart, error) {
	var cart checkout.Cart
	path := fmt.Sprintf("/api/cart/%s", url.PathEscape(c.config.Scope))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &cart, true); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &cart, nil
}

// UpdateCart submits the merged per-step cart updates. The call is not
// retried; the backend applies updates non-atomically.
func (c *Client) UpdateCart(ctx context.Context, req checkout.UpdateRequest) (*checkout.UpdateResult, error) {
	var result checkout.UpdateResult
	path := fmt.Sprintf("/api/cart/%s/update", url.PathEscape(c.config.Scope))
	if err := c.doJSON(ctx, http.MethodPost, path, req, &result, false); err != nil {
		return nil, fmt.Errorf("update cart: %w", err)
	}
	return &result, nil
}

// CompleteCheckout finalizes the checkout from the given step. The call is
// not retried; a repeat could submit the order twice.
func (c *Client) CompleteCheckout(ctx context.Context, step checkout.Step) (*checkout.CompleteResult, error) {
	body := struct {
		CurrentStep int `json:"currentStep"`
	}{int(step)}

	var result checkout.CompleteResult
	path := fmt.Sprintf("/api/checkout/%s/complete", url.PathEscape(c.config.Scope))
	if err := c.doJSON(ctx, http.MethodPost, path, body, &result, false); err != nil {
		return nil, fmt.Errorf("complete checkout: %w", err)
	}
	return &result, nil
}

// FetchSitemapEntries retrieves one page of sitemap entries for a culture.
func (c *Client) FetchSitemapEntries(ctx context.Context, culture string, offset, count int) ([]sitemap.Entry, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("count", strconv.Itoa(count))

	var entries []sitemap.Entry
	path := fmt.Sprintf("/api/sitemap/%s/%s/entries?%s",
		url.PathEscape(c.config.Scope), url.PathEscape(culture), query.Encode())
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &entries, true); err != nil {
		return nil, fmt.Errorf("fetch sitemap entries: %w", err)
	}
	return entries, nil
}

// EntrySourceFor adapts the client into a sitemap entry source for one
// culture.
func (c *Client) EntrySourceFor(culture string) sitemap.EntrySource {
	return sitemap.EntrySourceFunc(func(ctx context.Context, offset, count int) ([]sitemap.Entry, error) {
		return c.FetchSitemapEntries(ctx, culture, offset, count)
	})
}
