package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Rooms lists the account's chat rooms, most recently active first.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/chat/rooms/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Room](raw)
}

// Room fetches one room's metadata.
func (c *Client) Room(ctx context.Context, roomID int64) (*Room, error) {
	var room Room
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/rooms/%d/", roomID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateOrGetRoom returns the room for the given counterpart and optional
// product context, creating it when absent. Idempotent: the same participant
// pair always resolves to the same room.
func (c *Client) CreateOrGetRoom(ctx context.Context, participantID, productID int64, roomType string) (*Room, error) {
	body := map[string]any{
		"participant_id": participantID,
		"room_type":      roomType,
	}
	if productID != 0 {
		body["product_id"] = productID
	}
	var room Room
	if err := c.do(ctx, http.MethodPost, "/chat/rooms/create_or_get/", body, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// Messages lists a room's messages ascending by creation time.
func (c *Client) Messages(ctx context.Context, roomID int64) ([]Message, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/chat/rooms/%d/messages/", roomID), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Message](raw)
}

// SendMessage posts a message and returns the server's stored record.
func (c *Client) SendMessage(ctx context.Context, roomID int64, content, messageType, imageURL, fileURL string) (*Message, error) {
	body := map[string]any{
		"content":      content,
		"message_type": messageType,
		"image_url":    imageURL,
		"file_url":     fileURL,
	}
	var msg Message
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chat/rooms/%d/send/", roomID), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead marks every message in the room as read for this account.
func (c *Client) MarkRead(ctx context.Context, roomID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/chat/rooms/%d/mark_read/", roomID), nil, nil)
}

// UnreadCount returns the total unread message count across rooms.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var body struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/rooms/unread_count/", nil, &body); err != nil {
		return 0, err
	}
	return body.UnreadCount, nil
}
