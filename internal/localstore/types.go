package localstore

// Room is a cached chat room summary, last refreshed from the server.
type Room struct {
	ID                 int64
	RoomType           string
	CounterpartID      int64
	CounterpartName    string
	ProductID          int64
	ProductName        string
	LastMessagePreview string
	LastMessageAt      int64
	UnreadCount        int
}

// Message is a cached chat message. Rows are unique on (room_id, msg_id)
// and listed in ascending created_at order.
type Message struct {
	ID          int64
	RoomID      int64
	MsgID       int64
	SenderID    int64
	SenderName  string
	Content     string
	MessageType string
	ImageURL    string
	IsMine      bool
	IsRead      bool
	CreatedAt   int64
}
