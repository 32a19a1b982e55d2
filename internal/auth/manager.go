// Package auth owns the session tokens for a profile: it persists the
// access/refresh pair, serves it to the API client, and announces
// authentication transitions on the bus so the cart merge and the chat
// room refresh run exactly once per login.
package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/api"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/localstore"
	"go.uber.org/zap"
)

// Manager persists the token pair and user profile in the local store and
// implements api.TokenSource.
type Manager struct {
	mu     sync.Mutex
	db     *localstore.DB
	bus    *bus.Bus
	logger *zap.Logger
	tokens api.TokenPair
	user   *api.User
}

// NewManager creates a manager and loads any cached session from the store.
func NewManager(db *localstore.DB, b *bus.Bus, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{db: db, bus: b, logger: logger}
	m.load()
	return m
}

func (m *Manager) load() {
	if raw, ok, err := m.db.GetKV(localstore.KeyAuthTokens); err == nil && ok {
		if err := json.Unmarshal([]byte(raw), &m.tokens); err != nil {
			m.logger.Warn("discarding unreadable token cache", zap.Error(err))
			m.tokens = api.TokenPair{}
		}
	}
	if raw, ok, err := m.db.GetKV(localstore.KeyUser); err == nil && ok {
		var u api.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			m.user = &u
		}
	}
}

// Access returns the current bearer access token, empty when anonymous.
func (m *Manager) Access() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Access
}

// Refresh returns the current refresh token, empty when anonymous.
func (m *Manager) Refresh() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Refresh
}

// SetAccess stores a rotated access token after a transparent refresh.
func (m *Manager) SetAccess(access string) {
	m.mu.Lock()
	m.tokens.Access = access
	m.persistTokensLocked()
	m.mu.Unlock()
}

// Clear drops the session. Called by the API client when the refresh token is
// rejected; the next request starts anonymous.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.tokens = api.TokenPair{}
	m.user = nil
	_ = m.db.DeleteKV(localstore.KeyAuthTokens)
	_ = m.db.DeleteKV(localstore.KeyUser)
	m.mu.Unlock()

	m.logger.Info("session cleared")
	m.publish("session.expired", nil)
}

// Authenticated reports whether a refresh token is held.
func (m *Manager) Authenticated() bool {
	return m.Refresh() != ""
}

// User returns the cached account profile, nil when anonymous.
func (m *Manager) User() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Login exchanges credentials for a session and announces the
// anonymous-to-authenticated transition.
func (m *Manager) Login(ctx context.Context, client *api.Client, creds api.Credentials) (*api.User, error) {
	res, err := client.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	m.adopt(res)
	m.logger.Info("logged in", zap.String("username", res.User.Username))
	m.publish("session.authenticated", res.User)
	return &res.User, nil
}

// Register creates an account; a successful registration is also a login.
func (m *Manager) Register(ctx context.Context, client *api.Client, req api.RegisterRequest) (*api.User, error) {
	res, err := client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	m.adopt(res)
	m.logger.Info("registered", zap.String("username", res.User.Username))
	m.publish("session.authenticated", res.User)
	return &res.User, nil
}

// UpdateUser replaces the cached account profile, keeping the tokens. Used
// after profile refreshes and the buyer-to-seller upgrade.
func (m *Manager) UpdateUser(u *api.User) {
	if u == nil {
		return
	}
	m.mu.Lock()
	cp := *u
	m.user = &cp
	if raw, err := json.Marshal(cp); err == nil {
		if err := m.db.PutKV(localstore.KeyUser, string(raw)); err != nil {
			m.logger.Error("persist user profile", zap.Error(err))
		}
	}
	m.mu.Unlock()
}

// Logout revokes the refresh token server-side (best effort) and drops the
// local session.
func (m *Manager) Logout(ctx context.Context, client *api.Client) {
	refresh := m.Refresh()
	if refresh != "" {
		if err := client.Logout(ctx, refresh); err != nil {
			m.logger.Warn("remote logout failed", zap.Error(err))
		}
	}

	m.mu.Lock()
	m.tokens = api.TokenPair{}
	m.user = nil
	_ = m.db.DeleteKV(localstore.KeyAuthTokens)
	_ = m.db.DeleteKV(localstore.KeyUser)
	m.mu.Unlock()

	m.logger.Info("logged out")
	m.publish("session.logged_out", nil)
}

func (m *Manager) adopt(res *api.LoginResult) {
	m.mu.Lock()
	m.tokens = api.TokenPair{Access: res.Access, Refresh: res.Refresh}
	u := res.User
	m.user = &u
	m.persistTokensLocked()
	if raw, err := json.Marshal(res.User); err == nil {
		if err := m.db.PutKV(localstore.KeyUser, string(raw)); err != nil {
			m.logger.Error("persist user profile", zap.Error(err))
		}
	}
	m.mu.Unlock()
}

func (m *Manager) persistTokensLocked() {
	raw, err := json.Marshal(m.tokens)
	if err != nil {
		return
	}
	if err := m.db.PutKV(localstore.KeyAuthTokens, string(raw)); err != nil {
		m.logger.Error("persist tokens", zap.Error(err))
	}
}

func (m *Manager) publish(kind string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
