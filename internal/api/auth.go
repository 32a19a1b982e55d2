package api

import (
	"context"
	"net/http"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the token pair plus profile returned by login and register.
type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login/", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterRequest creates a new buyer account.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// Register creates an account and returns its token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/register/", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout blacklists the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout/", map[string]string{"refresh": refresh}, nil)
}

// Profile fetches the authenticated account profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/profile/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// BecomeSeller upgrades the account to a seller with the given shop name.
func (c *Client) BecomeSeller(ctx context.Context, shopName string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/become-seller/", map[string]string{"shop_name": shopName}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
