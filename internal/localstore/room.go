package localstore

import (
	"database/sql"
	"time"
)

// UpsertRoom inserts or updates a cached room record.
func (db *DB) UpsertRoom(r *Room) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO rooms (id, room_type, counterpart_id, counterpart_name, product_id, product_name,
			last_message_preview, last_message_at, unread_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_type = excluded.room_type,
			counterpart_id = excluded.counterpart_id,
			counterpart_name = excluded.counterpart_name,
			product_id = excluded.product_id,
			product_name = excluded.product_name,
			last_message_preview = excluded.last_message_preview,
			last_message_at = excluded.last_message_at,
			unread_count = excluded.unread_count,
			updated_at = excluded.updated_at`,
		r.ID, r.RoomType, r.CounterpartID, r.CounterpartName, r.ProductID, r.ProductName,
		r.LastMessagePreview, r.LastMessageAt, r.UnreadCount, now)
	return err
}

// ListRooms returns cached rooms sorted by last message timestamp descending.
func (db *DB) ListRooms(limit int) ([]Room, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, room_type, counterpart_id, counterpart_name, product_id, product_name,
			last_message_preview, last_message_at, unread_count
		FROM rooms
		ORDER BY last_message_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.RoomType, &r.CounterpartID, &r.CounterpartName,
			&r.ProductID, &r.ProductName, &r.LastMessagePreview, &r.LastMessageAt, &r.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRoom returns a single cached room by id, or nil when absent.
func (db *DB) GetRoom(id int64) (*Room, error) {
	var r Room
	err := db.QueryRow(`
		SELECT id, room_type, counterpart_id, counterpart_name, product_id, product_name,
			last_message_preview, last_message_at, unread_count
		FROM rooms
		WHERE id = ?`, id).
		Scan(&r.ID, &r.RoomType, &r.CounterpartID, &r.CounterpartName,
			&r.ProductID, &r.ProductName, &r.LastMessagePreview, &r.LastMessageAt, &r.UnreadCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
