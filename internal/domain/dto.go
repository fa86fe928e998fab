package domain

// Request/response shapes for the HTTP surface. Amount fields travel as
// decimal strings, never floats.

type OpenSessionRequest struct {
	TableID    int64  `json:"table_id" binding:"required"`
	CustomerID *int64 `json:"customer_id,omitempty"`
}

type CloseSessionRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	AmountPaid    string `json:"amount_paid" binding:"required"`
}

type SessionResponse struct {
	ID       int64   `json:"id"`
	Number   string  `json:"session_number"`
	TableID  int64   `json:"table_id"`
	Status   string  `json:"status"`
	Subtotal string  `json:"subtotal"`
	Discount string  `json:"discount"`
	Tax      string  `json:"tax"`
	Total    string  `json:"total"`
	ClosedAt *string `json:"closed_at,omitempty"`
}

type CreateDraftRequest struct {
	TableID   *int64 `json:"table_id,omitempty"`
	SessionID *int64 `json:"session_id,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type AddItemRequest struct {
	ProductID         int64   `json:"product_id" binding:"required"`
	Quantity          string  `json:"quantity" binding:"required"`
	UnitPriceOverride *string `json:"unit_price_override,omitempty"`
}

type AddAddonRequest struct {
	AddonID  int64  `json:"addon_id" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
}

type UpdateQuantityRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

type DraftItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

type DraftResponse struct {
	ID       int64               `json:"id"`
	IsOnHold bool                `json:"is_on_hold"`
	Subtotal string              `json:"subtotal"`
	Discount string              `json:"discount"`
	Tax      string              `json:"tax"`
	Total    string              `json:"total"`
	Items    []DraftItemResponse `json:"items"`
}

type ClearDraftsResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

type AdvanceOrderRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
}

type VoidOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type OrderResponse struct {
	ID       int64  `json:"id"`
	Number   string `json:"order_number"`
	Status   string `json:"status"`
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`
	Items    int    `json:"item_count"`
}

type ErrorResponse struct {
	Kind   string `json:"error"`
	Entity string `json:"entity,omitempty"`
	ID     string `json:"id,omitempty"`
	Msg    string `json:"message"`
}
