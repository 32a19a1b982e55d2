package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ProductQuery filters the product listing.
type ProductQuery struct {
	Search   string
	Category string
	Ordering string
	Page     int
}

func (q ProductQuery) encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Products lists catalog products matching the query.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products/"+q.encode(), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Product](raw)
}

// ProductByID fetches one product's detail record.
func (c *Client) ProductByID(ctx context.Context, id int64) (*ProductDetail, error) {
	var p ProductDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d/", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Categories lists product categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products/categories/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Category](raw)
}

// MyProducts lists the authenticated seller's own products.
func (c *Client) MyProducts(ctx context.Context) ([]Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products/my-products/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Product](raw)
}

// ProductInput creates or updates a seller product. Image URLs come from the
// upload package, not multipart form data.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Stock       int      `json:"stock"`
	CategoryID  int64    `json:"category"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

// CreateProduct creates a product for the authenticated seller.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*ProductDetail, error) {
	var p ProductDetail
	if err := c.do(ctx, http.MethodPost, "/products/", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct patches a seller product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*ProductDetail, error) {
	var p ProductDetail
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/products/%d/", id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes a seller product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d/", id), nil, nil)
}

// ReviewsByProduct lists reviews for a product.
func (c *Client) ReviewsByProduct(ctx context.Context, productID int64) ([]Review, error) {
	var raw json.RawMessage
	path := "/reviews/?product=" + strconv.FormatInt(productID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Review](raw)
}

// CreateReview posts a review for a purchased product.
func (c *Client) CreateReview(ctx context.Context, productID int64, rating int, comment string) (*Review, error) {
	body := map[string]any{"product": productID, "rating": rating, "comment": comment}
	var r Review
	if err := c.do(ctx, http.MethodPost, "/reviews/", body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReview removes the account's own review.
func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/reviews/%d/", id), nil, nil)
}
