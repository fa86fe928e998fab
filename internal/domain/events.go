package domain

import "time"

// Notification events are fire-and-forget: entity id plus kind. Delivery and
// ordering are the broker's concern.

type EventKind string

const (
	EventOrderReady    EventKind = "order_ready"
	EventLowStock      EventKind = "low_stock"
	EventSessionClosed EventKind = "session_closed"
)

type NotificationEvent struct {
	EventID   string    `json:"event_id"`
	Kind      EventKind `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Entity    string    `json:"entity"`
	Timestamp time.Time `json:"timestamp"`
}

// FulfillmentMessage is published once per destination group when an order is
// confirmed, routed as fulfillment.<destination>.<priority>.
type FulfillmentMessage struct {
	KitchenOrderID int64             `json:"kitchen_order_id"`
	OrderID        int64             `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	Destination    Destination       `json:"destination"`
	Priority       int               `json:"priority"`
	Items          []FulfillmentItem `json:"items"`
	Timestamp      time.Time         `json:"timestamp"`
}

type FulfillmentItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// StatusChange is broadcast on the notifications fanout whenever a kitchen
// order or committed order moves between states.
type StatusChange struct {
	OrderID     int64       `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Destination Destination `json:"destination,omitempty"`
	OldStatus   string      `json:"old_status"`
	NewStatus   string      `json:"new_status"`
	ChangedBy   string      `json:"changed_by"`
	Timestamp   time.Time   `json:"timestamp"`
}
