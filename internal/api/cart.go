package api

import (
	"context"
	"fmt"
	"net/http"
)

// GetCart fetches the authenticated account's cart.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/cart/", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity of a product to the remote cart. The server merges
// into an existing line for the same product, so repeated adds accumulate.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (*CartItem, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	var item CartItem
	if err := c.do(ctx, http.MethodPost, "/cart/add/", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCartItem replaces the quantity of a remote cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/items/%d/", itemID), body, nil)
}

// RemoveCartItem deletes a remote cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d/", itemID), nil, nil)
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear/", nil, nil)
}
