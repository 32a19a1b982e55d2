package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Notifications lists the account's notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/notifications/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Notification](raw)
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/notifications/%d/mark-read/", id), nil, nil)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/mark-all-read/", nil, nil)
}

// NotificationsUnreadCount returns the unread notification count.
func (c *Client) NotificationsUnreadCount(ctx context.Context) (int, error) {
	var body struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count/", nil, &body); err != nil {
		return 0, err
	}
	return body.UnreadCount, nil
}
