package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/api"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/localstore"
)

// fakeRemote simulates the chat endpoints. Rooms are keyed by participant id
// so create_or_get is naturally idempotent.
type fakeRemote struct {
	mu           sync.Mutex
	rooms        map[int64]*api.Room // keyed by room id
	byPair       map[string]int64    // participant/product -> room id
	messages     map[int64][]api.Message
	nextRoomID   int64
	nextMsgID    int64
	msgFetches   map[int64]int
	roomsFetches int
	sends        int
	markReads    []int64
	roomErr      error
	sendErr      error
	msgErr       error
	msgGate      chan struct{} // when set, Messages blocks until closed
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		rooms:      map[int64]*api.Room{},
		byPair:     map[string]int64{},
		messages:   map[int64][]api.Message{},
		msgFetches: map[int64]int{},
		nextRoomID: 10,
		nextMsgID:  100,
	}
}

func (f *fakeRemote) addRoom(id int64) *api.Room {
	room := &api.Room{ID: id, RoomType: DefaultRoomType}
	f.rooms[id] = room
	return room
}

func (f *fakeRemote) Rooms(context.Context) ([]api.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomsFetches++
	var out []api.Room
	for _, r := range f.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRemote) Room(_ context.Context, roomID int64) (*api.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roomErr != nil {
		return nil, f.roomErr
	}
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, &api.Error{Status: 404, Message: "room not found"}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRemote) CreateOrGetRoom(_ context.Context, participantID, productID int64, roomType string) (*api.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d/%d/%s", participantID, productID, roomType)
	if id, ok := f.byPair[key]; ok {
		cp := *f.rooms[id]
		return &cp, nil
	}
	f.nextRoomID++
	room := f.addRoom(f.nextRoomID)
	f.byPair[key] = room.ID
	cp := *room
	return &cp, nil
}

func (f *fakeRemote) Messages(ctx context.Context, roomID int64) ([]api.Message, error) {
	f.mu.Lock()
	f.msgFetches[roomID]++
	gate := f.msgGate
	msgErr := f.msgErr
	msgs := append([]api.Message(nil), f.messages[roomID]...)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if msgErr != nil {
		return nil, msgErr
	}
	return msgs, nil
}

func (f *fakeRemote) SendMessage(_ context.Context, roomID int64, content, messageType, imageURL, fileURL string) (*api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextMsgID++
	msg := api.Message{
		ID:          f.nextMsgID,
		RoomID:      roomID,
		Content:     content,
		MessageType: messageType,
		ImageURL:    imageURL,
		CreatedAt:   time.Now().Format(time.RFC3339Nano),
		IsMine:      true,
	}
	f.messages[roomID] = append(f.messages[roomID], msg)
	return &msg, nil
}

func (f *fakeRemote) MarkRead(_ context.Context, roomID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReads = append(f.markReads, roomID)
	return nil
}

func (f *fakeRemote) UnreadCount(context.Context) (int, error) {
	return 4, nil
}

func (f *fakeRemote) fetches(roomID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgFetches[roomID]
}

func testDB(t *testing.T) *localstore.DB {
	t.Helper()
	db, err := localstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestSync(t *testing.T, remote *fakeRemote, interval time.Duration) *Synchronizer {
	t.Helper()
	s := NewSynchronizer(remote, testDB(t), nil, nil, interval)
	t.Cleanup(s.LeaveRoom)
	return s
}

func TestJoinRoomActivatesAndMarksRead(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	remote.messages[1] = []api.Message{{ID: 1, RoomID: 1, Content: "hello", CreatedAt: "2024-01-15T10:00:00Z"}}
	s := newTestSync(t, remote, time.Hour)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if s.State() != Active {
		t.Errorf("state = %s, want ACTIVE", s.State())
	}
	if got := s.Messages(); len(got) != 1 || got[0].Content != "hello" {
		t.Errorf("messages = %+v", got)
	}
	if len(remote.markReads) != 1 || remote.markReads[0] != 1 {
		t.Errorf("markReads = %v, want [1]", remote.markReads)
	}
}

func TestJoinFailureLeavesIdle(t *testing.T) {
	remote := newFakeRemote()
	remote.roomErr = errors.New("boom")
	s := newTestSync(t, remote, time.Hour)

	if err := s.JoinRoom(context.Background(), 1); err == nil {
		t.Fatal("expected join error")
	}
	if s.State() != Idle {
		t.Errorf("state = %s, want IDLE after failed join", s.State())
	}
	if s.CurrentRoom() != nil {
		t.Error("current room set after failed join")
	}
}

func TestLeaveRoomClearsState(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	s := newTestSync(t, remote, time.Hour)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	s.LeaveRoom()

	if s.State() != Idle {
		t.Errorf("state = %s, want IDLE", s.State())
	}
	if s.CurrentRoom() != nil || len(s.Messages()) != 0 {
		t.Error("partial state retained after leave")
	}
}

func TestLeaveStopsPolling(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	s := newTestSync(t, remote, 15*time.Millisecond)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)
	if remote.fetches(1) < 2 {
		t.Fatalf("polling not running: %d fetches", remote.fetches(1))
	}

	s.LeaveRoom()
	settled := remote.fetches(1)
	time.Sleep(60 * time.Millisecond)
	if remote.fetches(1) != settled {
		t.Errorf("poll ticks continued after leave: %d -> %d", settled, remote.fetches(1))
	}
}

func TestLeaveDuringJoinAbortsJoin(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	remote.msgGate = make(chan struct{})
	s := newTestSync(t, remote, time.Hour)

	joinErr := make(chan error, 1)
	go func() { joinErr <- s.JoinRoom(context.Background(), 1) }()

	// Wait until the join's message fetch is in flight.
	deadline := time.After(time.Second)
	for remote.fetches(1) == 0 {
		select {
		case <-deadline:
			t.Fatal("join never reached the message fetch")
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.LeaveRoom()
	close(remote.msgGate)

	if err := <-joinErr; err == nil {
		t.Fatal("join succeeded despite an interleaved leave")
	}
	if s.State() != Idle {
		t.Errorf("state = %s, want IDLE after leave during join", s.State())
	}
	if s.CurrentRoom() != nil || len(s.Messages()) != 0 {
		t.Error("aborted join left partial state behind")
	}

	// The synchronizer must still be usable after the aborted join.
	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatalf("rejoin after aborted join: %v", err)
	}
	if s.State() != Active {
		t.Errorf("state = %s, want ACTIVE after rejoin", s.State())
	}
}

func TestSwitchingRoomsStopsOldPoll(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	remote.addRoom(2)
	remote.messages[1] = []api.Message{{ID: 1, RoomID: 1, Content: "old room"}}
	remote.messages[2] = []api.Message{{ID: 2, RoomID: 2, Content: "new room"}}
	s := newTestSync(t, remote, 15*time.Millisecond)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if err := s.JoinRoom(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	settled := remote.fetches(1)
	time.Sleep(60 * time.Millisecond)
	if remote.fetches(1) != settled {
		t.Errorf("old room still polled after switch: %d -> %d", settled, remote.fetches(1))
	}

	// No message from the old room leaks into the new conversation.
	for _, m := range s.Messages() {
		if m.RoomID == 1 {
			t.Errorf("message from left room applied: %+v", m)
		}
	}
}

func TestPollRefreshesMessages(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	s := newTestSync(t, remote, 15*time.Millisecond)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	remote.mu.Lock()
	remote.messages[1] = []api.Message{{ID: 5, RoomID: 1, Content: "late arrival"}}
	remote.mu.Unlock()

	deadline := time.After(time.Second)
	for {
		msgs := s.Messages()
		if len(msgs) == 1 && msgs[0].Content == "late arrival" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("poll never picked up new message: %+v", s.Messages())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPollErrorKeepsLoopAlive(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	s := newTestSync(t, remote, 15*time.Millisecond)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	remote.mu.Lock()
	remote.msgErr = errors.New("transient")
	remote.mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	remote.mu.Lock()
	remote.msgErr = nil
	remote.mu.Unlock()

	before := remote.fetches(1)
	time.Sleep(50 * time.Millisecond)
	if remote.fetches(1) <= before {
		t.Error("loop terminated after poll error")
	}
}

func TestSendMessageBlankIsNoOp(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	s := newTestSync(t, remote, time.Hour)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	_, err := s.SendMessage(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("error = %v, want ErrEmptyMessage", err)
	}
	if remote.sends != 0 {
		t.Errorf("network call issued for blank content: sends = %d", remote.sends)
	}
	if len(s.Messages()) != 0 {
		t.Error("message list changed on blank send")
	}
}

func TestSendMessageWithoutRoom(t *testing.T) {
	s := newTestSync(t, newFakeRemote(), time.Hour)
	_, err := s.SendMessage(context.Background(), "hello")
	if !errors.Is(err, ErrNoRoom) {
		t.Errorf("error = %v, want ErrNoRoom", err)
	}
}

func TestSendAppendsServerEchoAndRefreshesRooms(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	s := newTestSync(t, remote, time.Hour)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	before := remote.roomsFetches
	msg, err := s.SendMessage(context.Background(), "sawasdee")
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID == 0 {
		t.Error("returned message is not the server record")
	}

	got := s.Messages()
	if len(got) != 1 || got[0].ID != msg.ID {
		t.Errorf("messages = %+v, want server echo appended", got)
	}
	if remote.roomsFetches != before+1 {
		t.Errorf("room list not refreshed after send: %d -> %d", before, remote.roomsFetches)
	}
}

func TestStartChatIdempotent(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSync(t, remote, time.Hour)

	r1, err := s.StartChat(context.Background(), 42, 7, "")
	if err != nil {
		t.Fatal(err)
	}
	r2, err := s.StartChat(context.Background(), 42, 7, "")
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != r2.ID {
		t.Errorf("StartChat not idempotent: %d != %d", r1.ID, r2.ID)
	}
}

func TestFetchRoomsAndUnread(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	remote.addRoom(2)
	s := newTestSync(t, remote, time.Hour)

	if err := s.FetchRooms(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Rooms()) != 2 {
		t.Errorf("rooms = %d, want 2", len(s.Rooms()))
	}

	if err := s.FetchUnreadCount(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Unread() != 4 {
		t.Errorf("unread = %d, want 4", s.Unread())
	}
}

func TestMessagesMirroredToCache(t *testing.T) {
	remote := newFakeRemote()
	remote.addRoom(1)
	remote.messages[1] = []api.Message{
		{ID: 1, RoomID: 1, Content: "first", CreatedAt: "2024-01-15T10:00:00Z"},
		{ID: 2, RoomID: 1, Content: "second", CreatedAt: "2024-01-15T11:00:00Z"},
	}
	db := testDB(t)
	s := NewSynchronizer(remote, db, nil, nil, time.Hour)
	t.Cleanup(s.LeaveRoom)

	if err := s.JoinRoom(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	cached, err := db.ListMessages(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 2 || cached[0].Content != "first" || cached[1].Content != "second" {
		t.Errorf("cache = %+v", cached)
	}
}
