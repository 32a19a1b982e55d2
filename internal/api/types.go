package api

import "github.com/shopspring/decimal"

// Product is the catalog summary attached to cart items and product lists.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	CategoryName  string          `json:"category_name,omitempty"`
	SellerName    string          `json:"seller_name,omitempty"`
	MainImage     string          `json:"main_image,omitempty"`
	AverageRating float64         `json:"average_rating,omitempty"`
	ReviewCount   int             `json:"review_count,omitempty"`
	IsActive      bool            `json:"is_active,omitempty"`
}

// ProductDetail extends Product with the fields only present on the detail endpoint.
type ProductDetail struct {
	Product
	Description string         `json:"description"`
	Category    *Category      `json:"category,omitempty"`
	Seller      *UserSummary   `json:"seller,omitempty"`
	Images      []ProductImage `json:"images,omitempty"`
	ViewsCount  int            `json:"views_count,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
}

// ProductImage is one image attached to a product.
type ProductImage struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url"`
	IsMain   bool   `json:"is_main"`
	Order    int    `json:"order"`
}

// Category is a product category.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	Image        string `json:"image,omitempty"`
	ProductCount int    `json:"product_count,omitempty"`
}

// CartItem is one server-side cart line. Product is the snapshot the server
// serialized at read time; Total is quantity times unit price.
type CartItem struct {
	ID       int64           `json:"id"`
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Cart is the authenticated account's server-side cart.
type Cart struct {
	ID         int64           `json:"id"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

// UserSummary identifies a counterpart in chat and product listings.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	ShopName string `json:"shop_name,omitempty"`
}

// User is the authenticated account profile.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsSeller bool   `json:"is_seller"`
	ShopName string `json:"shop_name,omitempty"`
}

// TokenPair holds the bearer access token and the refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Room is a buyer-seller chat room.
type Room struct {
	ID               int64        `json:"id"`
	RoomType         string       `json:"room_type"`
	OtherParticipant *UserSummary `json:"other_participant,omitempty"`
	ProductID        int64        `json:"product,omitempty"`
	ProductName      string       `json:"product_name,omitempty"`
	ProductImage     string       `json:"product_image,omitempty"`
	LastMessage      *Message     `json:"last_message,omitempty"`
	UnreadCount      int          `json:"unread_count"`
	CreatedAt        string       `json:"created_at,omitempty"`
	UpdatedAt        string       `json:"updated_at,omitempty"`
}

// Message is one chat message. Immutable server-side except for the read flag.
type Message struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"room"`
	SenderID    int64  `json:"sender"`
	SenderName  string `json:"sender_name,omitempty"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url,omitempty"`
	FileURL     string `json:"file_url,omitempty"`
	IsRead      bool   `json:"is_read"`
	ReadAt      string `json:"read_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	IsMine      bool   `json:"is_mine"`
}

// OrderItem is one purchased line inside an order.
type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order is a placed order.
type Order struct {
	ID         int64           `json:"id"`
	Status     string          `json:"status"`
	Items      []OrderItem     `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Address    string          `json:"shipping_address,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

// Review is a product review.
type Review struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Reviewer  string `json:"reviewer_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Notification is a user notification.
type Notification struct {
	ID               int64  `json:"id"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	Link             string `json:"link,omitempty"`
	IsRead           bool   `json:"is_read"`
	CreatedAt        string `json:"created_at,omitempty"`
}
