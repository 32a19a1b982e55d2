// Package cart maintains the authoritative local view of the shopping cart.
// Mutations apply to local state first and persist immediately; remote calls
// are best effort and never roll a local mutation back. After login the
// local cart is merged into the remote one exactly once, and from then on
// the remote cart is the reconciliation target.
package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/api"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/localstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Remote is the slice of the API client the store issues cart calls against.
type Remote interface {
	GetCart(ctx context.Context) (*api.Cart, error)
	AddToCart(ctx context.Context, productID int64, quantity int) (*api.CartItem, error)
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveCartItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context) error
}

// Session reports whether remote reconciliation should happen at all.
type Session interface {
	Authenticated() bool
}

// Line is one cart entry: a product snapshot with a quantity. RemoteLineID is
// set once the line exists server-side.
type Line struct {
	Product      api.Product `json:"product"`
	Quantity     int         `json:"quantity"`
	RemoteLineID int64       `json:"id,omitempty"`
}

// Store owns the cart lines for one profile.
type Store struct {
	mu     sync.Mutex
	db     *localstore.DB
	remote Remote
	sess   Session
	bus    *bus.Bus
	logger *zap.Logger
	lines  []Line
}

// NewStore creates a store and loads the persisted cart blob.
func NewStore(db *localstore.DB, remote Remote, sess Session, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{db: db, remote: remote, sess: sess, bus: b, logger: logger}
	s.load()
	return s
}

func (s *Store) load() {
	raw, ok, err := s.db.GetKV(localstore.KeyCart)
	if err != nil || !ok {
		return
	}
	if err := json.Unmarshal([]byte(raw), &s.lines); err != nil {
		s.logger.Warn("discarding unreadable cart blob", zap.Error(err))
		s.lines = nil
	}
}

// AddItem adds quantity of product, merging into an existing line for the
// same product. The local mutation always sticks; a remote failure is
// returned so the caller can surface it, without undoing the local add.
func (s *Store) AddItem(ctx context.Context, product api.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].Product.ID == product.ID {
			s.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, Line{Product: product, Quantity: quantity})
	}
	s.persistLocked()
	s.mu.Unlock()
	s.publishUpdated()

	if !s.sess.Authenticated() {
		return nil
	}
	item, err := s.remote.AddToCart(ctx, product.ID, quantity)
	if err != nil {
		s.logger.Warn("remote cart add failed", zap.Int64("product_id", product.ID), zap.Error(err))
		return err
	}

	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].Product.ID == product.ID {
			s.lines[i].RemoteLineID = item.ID
			break
		}
	}
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// UpdateQuantity replaces a line's quantity. A quantity below 1 is a removal.
// Updating a product with no line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	var remoteLineID int64
	found := false
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			s.lines[i].Quantity = quantity
			remoteLineID = s.lines[i].RemoteLineID
			found = true
			break
		}
	}
	if found {
		s.persistLocked()
	}
	s.mu.Unlock()
	if !found {
		return nil
	}
	s.publishUpdated()

	if !s.sess.Authenticated() || remoteLineID == 0 {
		return nil
	}
	if err := s.remote.UpdateCartItem(ctx, remoteLineID, quantity); err != nil {
		s.logger.Warn("remote cart update failed", zap.Int64("item_id", remoteLineID), zap.Error(err))
		return err
	}
	return nil
}

// RemoveItem deletes the line for productID. Removing an absent product is a
// no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	s.mu.Lock()
	var remoteLineID int64
	found := false
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			remoteLineID = s.lines[i].RemoteLineID
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			found = true
			break
		}
	}
	if found {
		s.persistLocked()
	}
	s.mu.Unlock()
	if !found {
		return nil
	}
	s.publishUpdated()

	if !s.sess.Authenticated() || remoteLineID == 0 {
		return nil
	}
	if err := s.remote.RemoveCartItem(ctx, remoteLineID); err != nil {
		s.logger.Warn("remote cart remove failed", zap.Int64("item_id", remoteLineID), zap.Error(err))
		return err
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil
	s.persistLocked()
	s.mu.Unlock()
	s.publishUpdated()

	if !s.sess.Authenticated() {
		return nil
	}
	if err := s.remote.ClearCart(ctx); err != nil {
		s.logger.Warn("remote cart clear failed", zap.Error(err))
		return err
	}
	return nil
}

// SyncWithServer merges the local cart into the remote one and then adopts
// the remote cart as the source of truth. Run once per login. Per-line add
// failures (already present remotely, out of stock) are swallowed; a line the
// server rejects is dropped by the final adopt. A failed final fetch leaves
// local state untouched.
func (s *Store) SyncWithServer(ctx context.Context) error {
	s.mu.Lock()
	local := make([]Line, len(s.lines))
	copy(local, s.lines)
	s.mu.Unlock()

	for _, line := range local {
		if _, err := s.remote.AddToCart(ctx, line.Product.ID, line.Quantity); err != nil {
			s.logger.Info("cart merge: line not accepted remotely",
				zap.Int64("product_id", line.Product.ID), zap.Error(err))
		}
	}

	remote, err := s.remote.GetCart(ctx)
	if err != nil {
		s.logger.Warn("cart merge: remote fetch failed, keeping local state", zap.Error(err))
		return err
	}

	lines := make([]Line, 0, len(remote.Items))
	for _, item := range remote.Items {
		lines = append(lines, Line{
			Product:      item.Product,
			Quantity:     item.Quantity,
			RemoteLineID: item.ID,
		})
	}

	s.mu.Lock()
	s.lines = lines
	s.persistLocked()
	s.mu.Unlock()
	s.publishUpdated()

	s.logger.Info("cart merged with server", zap.Int("lines", len(lines)))
	return nil
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// TotalItems is the sum of quantities, recomputed on every read.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice is the sum of quantity times unit price, recomputed on every read.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (s *Store) persistLocked() {
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return
	}
	if err := s.db.PutKV(localstore.KeyCart, string(raw)); err != nil {
		s.logger.Error("persist cart blob", zap.Error(err))
	}
}

func (s *Store) publishUpdated() {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{
		Kind:      "cart.updated",
		Timestamp: time.Now(),
		Payload:   map[string]int{"total_items": s.TotalItems()},
	})
}
