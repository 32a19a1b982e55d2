package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OrderInput places an order from the current cart contents.
type OrderInput struct {
	ShippingAddress string `json:"shipping_address"`
	Phone           string `json:"phone,omitempty"`
	Note            string `json:"note,omitempty"`
}

// Orders lists the account's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/orders/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Order](raw)
}

// OrderByID fetches one order.
func (c *Client) OrderByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d/", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder places an order; the server validates stock at this point.
func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodPost, "/orders/", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus moves an order through its lifecycle (seller side).
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/update-status/", id), map[string]string{"status": status}, nil)
}

// MockPayment settles an order through the sandbox payment hook.
func (c *Client) MockPayment(ctx context.Context, id int64, success bool) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/mock-payment/", id), map[string]bool{"success": success}, nil)
}
