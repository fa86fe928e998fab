package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the verified caller passed in by the auth collaborator.
// The engine never checks credentials, only ownership and role.
type Identity struct {
	CashierID int64
	Role      string
}

const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

// ---- tables ----

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableCleaning  TableStatus = "cleaning"
)

type RestaurantTable struct {
	ID               int64
	Label            string
	Status           TableStatus
	CurrentSessionID *int64
	UpdatedAt        time.Time
}

// ---- sessions (tabs) ----

type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
	SessionAbandoned SessionStatus = "abandoned"
)

func (s SessionStatus) Terminal() bool { return s == SessionClosed || s == SessionAbandoned }

type OrderSession struct {
	ID         int64
	Number     string // TAB-YYYYMMDD-NNN, unique, increasing per day
	TableID    int64
	CustomerID *int64
	Status     SessionStatus
	OpenedBy   int64
	OpenedAt   time.Time
	ClosedAt   *time.Time
	Subtotal   Money
	Discount   Money
	Tax        Money
	Total      Money
}

// ---- drafts (current orders) ----

type CurrentOrder struct {
	ID        int64
	CashierID int64
	TableID   *int64
	SessionID *int64
	IsOnHold  bool
	Subtotal  Money
	Discount  Money
	Tax       Money
	Total     Money
	Notes     string
	Items     []CurrentOrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CurrentOrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	// Name and unit price are snapshotted at add-time so later catalog edits
	// do not change an in-flight cart.
	Name      string
	Quantity  Quantity
	UnitPrice Money
	Subtotal  Money
	Total     Money
	Addons    []CurrentOrderItemAddon
}

type CurrentOrderItemAddon struct {
	ID         int64
	ItemID     int64
	AddonID    int64
	Name       string
	PriceDelta Money
	Quantity   Quantity
}

// ItemTotal derives one item's total from its own rows: unit price times
// quantity plus every addon delta times its quantity.
func ItemTotal(it CurrentOrderItem) Money {
	total := it.UnitPrice.MulQty(it.Quantity)
	for _, ad := range it.Addons {
		total = total.Add(ad.PriceDelta.MulQty(ad.Quantity))
	}
	return total
}

// DraftTotals is the pure recomputation law: subtotal is the sum over all
// items including addons, total is subtotal minus discount plus tax. Totals
// are always re-derived from current child rows, never patched incrementally.
func DraftTotals(items []CurrentOrderItem, discount, tax Money) (subtotal, total Money) {
	subtotal = ZeroMoney()
	for _, it := range items {
		subtotal = subtotal.Add(ItemTotal(it))
	}
	return subtotal, subtotal.Sub(discount).Add(tax)
}

// ---- committed orders ----

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderOnHold    OrderStatus = "on_hold"
	OrderVoided    OrderStatus = "voided"
)

// nextOrderStatus holds the single permitted forward transition per state.
var nextOrderStatus = map[OrderStatus]OrderStatus{
	OrderDraft:     OrderConfirmed,
	OrderConfirmed: OrderPreparing,
	OrderPreparing: OrderReady,
	OrderReady:     OrderServed,
	OrderServed:    OrderCompleted,
}

var voidableFrom = map[OrderStatus]bool{
	OrderDraft:     true,
	OrderConfirmed: true,
	OrderPreparing: true,
}

// CanTransitionTo permits only the immediate next forward state, or void
// from draft/confirmed/preparing. Everything else is an invalid transition.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if target == OrderVoided {
		return voidableFrom[s]
	}
	return nextOrderStatus[s] == target
}

func (s OrderStatus) Terminal() bool { return s == OrderCompleted || s == OrderVoided }

type Order struct {
	ID         int64
	Number     string
	SessionID  *int64
	CashierID  int64
	CustomerID *int64
	Status     OrderStatus
	Subtotal   Money
	Discount   Money
	Tax        Money
	Total      Money
	VoidReason string
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Priority ranks fulfillment work by tab size, larger totals first.
func (o Order) Priority() int {
	switch {
	case o.Total.Decimal.GreaterThanOrEqual(decimal.NewFromInt(100)):
		return 10
	case o.Total.Decimal.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return 5
	default:
		return 1
	}
}

type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Name        string
	Quantity    Quantity
	UnitPrice   Money
	Total       Money
	Destination Destination
	Addons      []OrderItemAddon
}

type OrderItemAddon struct {
	ID         int64
	ItemID     int64
	AddonID    int64
	Name       string
	PriceDelta Money
	Quantity   Quantity
}

// ---- fulfillment queue entries ----

type Destination string

const (
	DestKitchen   Destination = "kitchen"
	DestBartender Destination = "bartender"
)

type KitchenStatus string

const (
	KitchenPending   KitchenStatus = "pending"
	KitchenPreparing KitchenStatus = "preparing"
	KitchenReady     KitchenStatus = "ready"
	KitchenServed    KitchenStatus = "served"
)

var nextKitchenStatus = map[KitchenStatus]KitchenStatus{
	KitchenPending:   KitchenPreparing,
	KitchenPreparing: KitchenReady,
	KitchenReady:     KitchenServed,
}

func (s KitchenStatus) CanTransitionTo(target KitchenStatus) bool {
	return nextKitchenStatus[s] == target
}

type KitchenOrder struct {
	ID          int64
	OrderID     int64
	Destination Destination
	Status      KitchenStatus
	Priority    int
	ProcessedBy *string
	CreatedAt   time.Time
	StartedAt   *time.Time
	ReadyAt     *time.Time
}

// ---- catalog (read side + stock) ----

type Product struct {
	ID                int64
	Name              string
	Price             Money
	Destination       Destination
	StockQuantity     Quantity
	LowStockThreshold Quantity
	IsActive          bool
}

type Addon struct {
	ID         int64
	Name       string
	PriceDelta Money
	IsActive   bool
}
