package localstore

import "time"

// UpsertMessage inserts or updates a cached message (idempotent on room_id + msg_id).
// Only the read flag changes on conflict: server messages are immutable once created.
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (room_id, msg_id, sender_id, sender_name, content, message_type, image_url, is_mine, is_read, created_at, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_id, msg_id) DO UPDATE SET
			is_read = excluded.is_read,
			cached_at = excluded.cached_at`,
		m.RoomID, m.MsgID, m.SenderID, m.SenderName, m.Content, m.MessageType, m.ImageURL, m.IsMine, m.IsRead, m.CreatedAt, now)
	return err
}

// ReplaceRoomMessages replaces the cached message list for a room in one
// transaction. Used after each poll so the cache mirrors the server's list.
func (db *DB) ReplaceRoomMessages(roomID int64, msgs []Message) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, m := range msgs {
		if _, err := tx.Exec(`
			INSERT INTO messages (room_id, msg_id, sender_id, sender_name, content, message_type, image_url, is_mine, is_read, created_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(room_id, msg_id) DO UPDATE SET
				is_read = excluded.is_read,
				cached_at = excluded.cached_at`,
			roomID, m.MsgID, m.SenderID, m.SenderName, m.Content, m.MessageType, m.ImageURL, m.IsMine, m.IsRead, m.CreatedAt, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListMessages returns cached messages for a room ascending by creation time.
func (db *DB) ListMessages(roomID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Query(`
		SELECT id, room_id, msg_id, sender_id, sender_name, content, message_type, image_url, is_mine, is_read, created_at
		FROM messages
		WHERE room_id = ?
		ORDER BY created_at ASC
		LIMIT ?`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.MsgID, &m.SenderID, &m.SenderName,
			&m.Content, &m.MessageType, &m.ImageURL, &m.IsMine, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
