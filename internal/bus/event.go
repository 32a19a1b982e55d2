package bus

import "time"

// Event represents a storefront domain event published on the bus.
// Kinds are dot-namespaced: "cart.updated", "chat.messages_refreshed",
// "session.authenticated", and so on.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
