package localstore

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestKVRoundTrip(t *testing.T) {
	db := testDB(t)

	if err := db.PutKV(KeyCart, `[{"quantity":2}]`); err != nil {
		t.Fatal(err)
	}
	val, ok, err := db.GetKV(KeyCart)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("key not found after put")
	}
	if val != `[{"quantity":2}]` {
		t.Errorf("value = %q", val)
	}

	// Overwrite replaces.
	if err := db.PutKV(KeyCart, `[]`); err != nil {
		t.Fatal(err)
	}
	val, _, _ = db.GetKV(KeyCart)
	if val != `[]` {
		t.Errorf("value after overwrite = %q, want []", val)
	}
}

func TestKVMissing(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.GetKV("nope")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing key reported as present")
	}

	if err := db.DeleteKV("nope"); err != nil {
		t.Errorf("DeleteKV(missing) error = %v", err)
	}
}

func TestGetRoom(t *testing.T) {
	db := testDB(t)

	want := &Room{
		ID:                 4,
		RoomType:           "buyer_seller",
		CounterpartID:      9,
		CounterpartName:    "somchai",
		ProductID:          3,
		ProductName:        "Pad Thai Kit",
		LastMessagePreview: "still available?",
		LastMessageAt:      2000,
		UnreadCount:        1,
	}
	if err := db.UpsertRoom(want); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRoom(4)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("room not found after upsert")
	}
	if *got != *want {
		t.Errorf("room = %+v, want %+v", got, want)
	}

	missing, err := db.GetRoom(99)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("missing room = %+v, want nil", missing)
	}
}

func TestUpsertRoomIdempotent(t *testing.T) {
	db := testDB(t)

	r := &Room{ID: 7, RoomType: "buyer_seller", CounterpartName: "somchai", LastMessageAt: 1000}
	if err := db.UpsertRoom(r); err != nil {
		t.Fatal(err)
	}
	r.LastMessagePreview = "updated"
	r.UnreadCount = 3
	if err := db.UpsertRoom(r); err != nil {
		t.Fatal(err)
	}

	rooms, err := db.ListRooms(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 {
		t.Fatalf("got %d rooms, want 1", len(rooms))
	}
	if rooms[0].LastMessagePreview != "updated" || rooms[0].UnreadCount != 3 {
		t.Errorf("room not updated: %+v", rooms[0])
	}
}

func TestListRoomsOrder(t *testing.T) {
	db := testDB(t)

	_ = db.UpsertRoom(&Room{ID: 1, LastMessageAt: 100})
	_ = db.UpsertRoom(&Room{ID: 2, LastMessageAt: 300})
	_ = db.UpsertRoom(&Room{ID: 3, LastMessageAt: 200})

	rooms, err := db.ListRooms(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 3 || rooms[0].ID != 2 || rooms[1].ID != 3 || rooms[2].ID != 1 {
		t.Errorf("rooms out of order: %+v", rooms)
	}
}

func TestMessagesAscendingAndIdempotent(t *testing.T) {
	db := testDB(t)

	msgs := []Message{
		{MsgID: 11, Content: "second", CreatedAt: 2000},
		{MsgID: 10, Content: "first", CreatedAt: 1000},
	}
	if err := db.ReplaceRoomMessages(5, msgs); err != nil {
		t.Fatal(err)
	}
	// Re-applying the same list must not duplicate rows.
	if err := db.ReplaceRoomMessages(5, msgs); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListMessages(5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("messages not ascending by created_at: %+v", got)
	}
}

func TestUpsertMessageUpdatesReadFlag(t *testing.T) {
	db := testDB(t)

	m := &Message{RoomID: 1, MsgID: 42, Content: "hello", CreatedAt: 1000}
	if err := db.UpsertMessage(m); err != nil {
		t.Fatal(err)
	}
	m.IsRead = true
	if err := db.UpsertMessage(m); err != nil {
		t.Fatal(err)
	}

	got, _ := db.ListMessages(1, 10)
	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	if !got[0].IsRead {
		t.Error("read flag not updated on conflict")
	}
}
