// Package chat keeps one active conversation and the room list reasonably
// fresh over a plain REST API. There is no push channel: while a room is
// joined its messages are re-fetched on a fixed interval, and the poll is
// torn down on every exit path (leave, switch, session end). Freshly fetched
// rooms and messages are mirrored into the local store so the last-known
// state is readable offline.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/api"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/localstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoRoom is returned when sending without a joined room.
var ErrNoRoom = errors.New("no chat room joined")

// ErrEmptyMessage is returned for blank content before any network call.
var ErrEmptyMessage = errors.New("message content is empty")

// DefaultRoomType matches the server's buyer/seller conversation type.
const DefaultRoomType = "buyer_seller"

// Remote is the slice of the API client the synchronizer calls.
type Remote interface {
	Rooms(ctx context.Context) ([]api.Room, error)
	Room(ctx context.Context, roomID int64) (*api.Room, error)
	CreateOrGetRoom(ctx context.Context, participantID, productID int64, roomType string) (*api.Room, error)
	Messages(ctx context.Context, roomID int64) ([]api.Message, error)
	SendMessage(ctx context.Context, roomID int64, content, messageType, imageURL, fileURL string) (*api.Message, error)
	MarkRead(ctx context.Context, roomID int64) error
	UnreadCount(ctx context.Context) (int, error)
}

// Synchronizer owns the room list, the active conversation, and its poll loop.
type Synchronizer struct {
	remote   Remote
	db       *localstore.DB
	bus      *bus.Bus
	logger   *zap.Logger
	machine  *Machine
	interval time.Duration

	mu         sync.Mutex
	rooms      []api.Room
	current    *api.Room
	messages   []api.Message
	unread     int
	pollCancel context.CancelFunc
	joinCancel context.CancelFunc
	joinGen    uint64
	inFlight   bool
}

// NewSynchronizer creates a synchronizer polling at the given interval.
func NewSynchronizer(remote Remote, db *localstore.DB, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Synchronizer{
		remote:   remote,
		db:       db,
		bus:      b,
		logger:   logger,
		machine:  NewMachine(b),
		interval: interval,
	}
}

// State returns the conversation view state.
func (s *Synchronizer) State() ViewState {
	return s.machine.Current()
}

// Rooms returns a copy of the last-fetched room list.
func (s *Synchronizer) Rooms() []api.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// CurrentRoom returns the joined room, nil when idle.
func (s *Synchronizer) CurrentRoom() *api.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Messages returns a copy of the active conversation's message list.
func (s *Synchronizer) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Unread returns the last-fetched total unread count.
func (s *Synchronizer) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// FetchRooms replaces the room list with the server's current list and
// mirrors it into the local cache.
func (s *Synchronizer) FetchRooms(ctx context.Context) error {
	rooms, err := s.remote.Rooms(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rooms = rooms
	s.mu.Unlock()

	for i := range rooms {
		if err := s.db.UpsertRoom(roomToCache(&rooms[i])); err != nil {
			s.logger.Warn("cache room", zap.Int64("room_id", rooms[i].ID), zap.Error(err))
		}
	}

	s.publish("chat.rooms_refreshed", len(rooms))
	return nil
}

// FetchUnreadCount replaces the unread counter.
func (s *Synchronizer) FetchUnreadCount(ctx context.Context) error {
	n, err := s.remote.UnreadCount(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.unread = n
	s.mu.Unlock()
	return nil
}

// JoinRoom fetches the room metadata and message history concurrently, makes
// the room current, marks it read, and starts the poll loop. A failed join
// leaves the view Idle. Joining while another room is active tears the old
// room down first.
func (s *Synchronizer) JoinRoom(ctx context.Context, roomID int64) error {
	if s.machine.Current() != Idle {
		s.LeaveRoom()
	}
	if err := s.machine.Transition(Loading); err != nil {
		return err
	}

	joinCtx, cancelJoin := context.WithCancel(ctx)
	s.mu.Lock()
	s.joinGen++
	gen := s.joinGen
	s.joinCancel = cancelJoin
	s.mu.Unlock()

	var (
		room *api.Room
		msgs []api.Message
	)
	g, gctx := errgroup.WithContext(joinCtx)
	g.Go(func() error {
		var err error
		room, err = s.remote.Room(gctx, roomID)
		return err
	})
	g.Go(func() error {
		var err error
		msgs, err = s.remote.Messages(gctx, roomID)
		return err
	})
	if err := g.Wait(); err != nil {
		cancelJoin()
		s.mu.Lock()
		stale := s.joinGen != gen
		if !stale {
			s.joinCancel = nil
		}
		s.mu.Unlock()
		// A stale join no longer owns the machine; LeaveRoom or a newer
		// join already moved it on.
		if !stale {
			_ = s.machine.Transition(Idle)
			s.logger.Warn("join room failed", zap.Int64("room_id", roomID), zap.Error(err))
		}
		return err
	}

	s.mu.Lock()
	// LeaveRoom may have run while the fetches were in flight; the join is
	// then already torn down and its result must not be applied.
	if s.joinGen != gen {
		s.mu.Unlock()
		cancelJoin()
		return context.Canceled
	}
	s.joinCancel = nil
	s.current = room
	s.messages = msgs
	pollCtx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	s.mu.Unlock()
	cancelJoin()

	if err := s.machine.Transition(Active); err != nil {
		cancel()
		return err
	}

	s.cacheMessages(roomID, msgs)

	if err := s.remote.MarkRead(ctx, roomID); err != nil {
		s.logger.Warn("mark read failed", zap.Int64("room_id", roomID), zap.Error(err))
	}

	go s.pollLoop(pollCtx, roomID)

	s.logger.Info("joined room", zap.Int64("room_id", roomID), zap.Int("messages", len(msgs)))
	return nil
}

// LeaveRoom clears the current room and message list and cancels the poll
// loop. A join still in flight is cancelled and its result discarded. No
// partial state is retained. Safe to call when idle.
func (s *Synchronizer) LeaveRoom() {
	s.mu.Lock()
	s.joinGen++
	cancelJoin := s.joinCancel
	s.joinCancel = nil
	cancel := s.pollCancel
	s.pollCancel = nil
	s.current = nil
	s.messages = nil
	s.mu.Unlock()

	if cancelJoin != nil {
		cancelJoin()
	}
	if cancel != nil {
		cancel()
	}
	switch s.machine.Current() {
	case Active, Loading:
		_ = s.machine.Transition(Idle)
	}
}

// SendMessage posts text to the joined room. Blank content is rejected
// before any network call. The appended message is the server's stored
// record, not a locally synthesized one.
func (s *Synchronizer) SendMessage(ctx context.Context, content string) (*api.Message, error) {
	return s.send(ctx, content, "text", "", "")
}

// SendImage posts an image message with an optional caption. The image URL
// comes from the upload package.
func (s *Synchronizer) SendImage(ctx context.Context, imageURL, caption string) (*api.Message, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, ErrEmptyMessage
	}
	return s.send(ctx, caption, "image", imageURL, "")
}

func (s *Synchronizer) send(ctx context.Context, content, messageType, imageURL, fileURL string) (*api.Message, error) {
	if messageType == "text" && strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	room := s.current
	s.mu.Unlock()
	if room == nil {
		return nil, ErrNoRoom
	}

	msg, err := s.remote.SendMessage(ctx, room.ID, content, messageType, imageURL, fileURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// The room may have changed while the send was in flight; only append
	// the echo to the conversation it belongs to.
	if s.current != nil && s.current.ID == room.ID {
		s.messages = append(s.messages, *msg)
	}
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.UpsertMessage(messageToCache(msg)); err != nil {
			s.logger.Warn("cache sent message", zap.Int64("room_id", room.ID), zap.Error(err))
		}
	}
	s.publish("chat.message_sent", msg.ID)

	// Refresh previews/ordering in the room list.
	if err := s.FetchRooms(ctx); err != nil {
		s.logger.Warn("room list refresh after send failed", zap.Error(err))
	}
	return msg, nil
}

// StartChat resolves the room for the given counterpart (creating it when
// absent — idempotent) and joins it.
func (s *Synchronizer) StartChat(ctx context.Context, participantID, productID int64, roomType string) (*api.Room, error) {
	if roomType == "" {
		roomType = DefaultRoomType
	}
	room, err := s.remote.CreateOrGetRoom(ctx, participantID, productID, roomType)
	if err != nil {
		return nil, err
	}
	if err := s.JoinRoom(ctx, room.ID); err != nil {
		return nil, err
	}
	return room, nil
}

// pollLoop re-fetches the joined room's messages on a fixed interval until
// ctx is cancelled. Failures are logged and skipped; the loop never
// terminates on error.
func (s *Synchronizer) pollLoop(ctx context.Context, roomID int64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pollOnce(ctx, roomID)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Synchronizer) pollOnce(ctx context.Context, roomID int64) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	msgs, err := s.remote.Messages(ctx, roomID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("poll tick failed", zap.Int64("room_id", roomID), zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	// The result may resolve after the room changed; discard it then.
	if s.current == nil || s.current.ID != roomID {
		s.mu.Unlock()
		return
	}
	s.messages = msgs
	s.mu.Unlock()

	s.cacheMessages(roomID, msgs)
	s.publish("chat.messages_refreshed", roomID)
}

func (s *Synchronizer) cacheMessages(roomID int64, msgs []api.Message) {
	if s.db == nil || len(msgs) == 0 {
		return
	}
	cached := make([]localstore.Message, 0, len(msgs))
	for i := range msgs {
		cached = append(cached, *messageToCache(&msgs[i]))
	}
	if err := s.db.ReplaceRoomMessages(roomID, cached); err != nil {
		s.logger.Warn("cache messages", zap.Int64("room_id", roomID), zap.Error(err))
	}
}

func (s *Synchronizer) publish(kind string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}

func roomToCache(r *api.Room) *localstore.Room {
	cached := &localstore.Room{
		ID:          r.ID,
		RoomType:    r.RoomType,
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		UnreadCount: r.UnreadCount,
	}
	if r.OtherParticipant != nil {
		cached.CounterpartID = r.OtherParticipant.ID
		cached.CounterpartName = r.OtherParticipant.Username
	}
	if r.LastMessage != nil {
		cached.LastMessagePreview = r.LastMessage.Content
		cached.LastMessageAt = parseTime(r.LastMessage.CreatedAt)
	}
	return cached
}

func messageToCache(m *api.Message) *localstore.Message {
	return &localstore.Message{
		RoomID:      m.RoomID,
		MsgID:       m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		Content:     m.Content,
		MessageType: m.MessageType,
		ImageURL:    m.ImageURL,
		IsMine:      m.IsMine,
		IsRead:      m.IsRead,
		CreatedAt:   parseTime(m.CreatedAt),
	}
}

func parseTime(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
