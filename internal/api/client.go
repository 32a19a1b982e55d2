// Package api is the typed client for the marketplace REST API. Every
// request carries a bearer token when one is available; an expired token is
// refreshed transparently once and the original request retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionExpired is returned when the access token is rejected and the
// refresh attempt fails too. The token source is cleared first, so the caller
// must re-authenticate.
var ErrSessionExpired = errors.New("session expired, login required")

// TokenSource supplies the bearer tokens attached to requests and receives
// rotated access tokens back.
type TokenSource interface {
	Access() string
	Refresh() string
	SetAccess(access string)
	Clear()
}

// Error is a non-2xx response from the API. Code is the machine-readable
// error identifier some endpoints include alongside the human message.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the marketplace REST API rooted at baseURL (".../api").
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a client. tokens may be nil for a purely anonymous client.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

// do issues one request, handling auth headers, one 401 refresh-retry, error
// decoding, and JSON decoding of the response into out (when out != nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload, c.access())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.refreshable() {
		drain(resp)
		access, refreshErr := c.refreshAccess(ctx)
		if refreshErr != nil {
			c.tokens.Clear()
			c.logger.Warn("token refresh failed, session terminated", zap.Error(refreshErr))
			return ErrSessionExpired
		}
		c.tokens.SetAccess(access)
		resp, err = c.send(ctx, method, path, payload, access)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.tokens.Clear()
			return ErrSessionExpired
		}
	}

	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string) (*http.Response, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// refreshAccess trades the refresh token for a new access token. The refresh
// request itself never carries the (stale) bearer header.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{"refresh": c.tokens.Refresh()})
	resp, err := c.send(ctx, http.MethodPost, "/auth/token/refresh/", payload, "")
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	var body struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if body.Access == "" {
		return "", errors.New("refresh response missing access token")
	}
	c.logger.Info("access token refreshed")
	return body.Access, nil
}

func (c *Client) access() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Access()
}

func (c *Client) refreshable() bool {
	return c.tokens != nil && c.tokens.Refresh() != ""
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
		Code   string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		if body.Detail != "" {
			apiErr.Message = body.Detail
		} else if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Code = body.Code
	}
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// decodeList accepts either a bare JSON array or a DRF-paginated object with
// a "results" array.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return page.Results, nil
}
