package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

// The store adapter owns every SQL statement and every transaction boundary.
// Validation happens before a repository call; once a Tx method starts, the
// transaction applies all rows or none.

type SessionRepositoryInterface interface {
	// OpenTx allocates the day sequence atomically, inserts the session and
	// flips the table to occupied in one transaction. A concurrent open on
	// the same table loses on the partial unique index and comes back as a
	// Conflict.
	OpenTx(ctx context.Context, tableID int64, customerID *int64, openerID int64) (domain.OrderSession, error)
	Get(ctx context.Context, id int64) (domain.OrderSession, error)
	// CloseTx locks the session, verifies it is open and that every
	// committed order under it is terminal, then closes it.
	CloseTx(ctx context.Context, id int64, paymentMethod string, amountPaid domain.Money) (domain.OrderSession, error)
	// AbandonTx terminates without payment; same table-release effect.
	AbandonTx(ctx context.Context, id int64) (domain.OrderSession, error)
}

type DraftRepositoryInterface interface {
	Create(ctx context.Context, draft domain.CurrentOrder) (domain.CurrentOrder, error)
	// Get applies the ownership filter in the query itself; a draft owned by
	// someone else is indistinguishable from a missing one at this layer.
	Get(ctx context.Context, draftID, cashierID int64) (domain.CurrentOrder, error)
	// Owner is the guard's lookup: it reports who owns the draft so the
	// guard can answer Forbidden instead of NotFound.
	Owner(ctx context.Context, draftID int64) (int64, error)
	ItemDraft(ctx context.Context, itemID int64) (int64, error)
	AddItemTx(ctx context.Context, draftID int64, item domain.CurrentOrderItem) (domain.CurrentOrderItem, error)
	AddAddonTx(ctx context.Context, itemID int64, addon domain.CurrentOrderItemAddon) (domain.CurrentOrderItemAddon, error)
	UpdateQuantityTx(ctx context.Context, itemID int64, qty domain.Quantity) error
	RemoveItemTx(ctx context.Context, itemID int64) error
	SetHold(ctx context.Context, draftID int64, hold bool) error
	// DeleteAllForCashier carries the mandatory, non-overridable ownership
	// filter. Deleting zero drafts is an explicit zero-count success.
	DeleteAllForCashier(ctx context.Context, cashierID int64) (int64, error)
	Delete(ctx context.Context, draftID int64) error
}

type OrderRepositoryInterface interface {
	// ConfirmTx writes the order, its item and addon snapshots, the
	// per-destination kitchen orders, the status log row and the stock
	// decrements, deletes the source draft and refreshes the owning
	// session's totals, all in one transaction. The draft delete is
	// version-checked against draftUpdatedAt: a draft mutated after the
	// snapshot was read comes back as Conflict. It returns products that
	// crossed their low-stock threshold.
	ConfirmTx(ctx context.Context, order domain.Order, draftID int64, draftUpdatedAt time.Time) (domain.Order, []domain.KitchenOrder, []domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	// AdvanceTx locks the row, checks the transition table and applies the
	// move with a status-log entry and a session-totals refresh. Invalid
	// moves return InvalidState.
	AdvanceTx(ctx context.Context, id int64, target domain.OrderStatus, changedBy string) (domain.Order, error)
	// VoidTx applies the terminal void and removes the order from its
	// session's totals in the same transaction.
	VoidTx(ctx context.Context, id int64, reason, changedBy string) (domain.Order, error)
	AllocateNumber(ctx context.Context) (string, error)
}

type FulfillmentRepositoryInterface interface {
	GetKitchenOrder(ctx context.Context, id int64) (domain.KitchenOrder, error)
	// StartPreparingTx moves pending to preparing, idempotently: a second
	// delivery of the same message is a no-op, not an error.
	StartPreparingTx(ctx context.Context, id int64, worker string) (bool, error)
	// MarkReadyTx moves preparing to ready and reports how many of the same
	// order's entries are still short of ready.
	MarkReadyTx(ctx context.Context, id int64, worker string) (remaining int64, orderID int64, err error)
	MarkServedTx(ctx context.Context, id int64, worker string) error
	RegisterOrFail(ctx context.Context, name string, dest domain.Destination) error
	Heartbeat(ctx context.Context, name string) error
	SetOffline(ctx context.Context, name string) error
}

type TableRepositoryInterface interface {
	Get(ctx context.Context, id int64) (domain.RestaurantTable, error)
	List(ctx context.Context) ([]domain.RestaurantTable, error)
	// CountOpenSessions backs the coordinator's defensive re-check.
	CountOpenSessions(ctx context.Context, tableID int64) (int64, error)
	Release(ctx context.Context, tableID int64) error
}

type ProductRepositoryInterface interface {
	Get(ctx context.Context, id int64) (domain.Product, error)
	GetAddon(ctx context.Context, id int64) (domain.Addon, error)
}

// wrapErr maps storage failures onto the error taxonomy: missing rows to
// NotFound, unique violations to Conflict, timeouts and everything else to
// the retryable Unavailable. Domain errors pass through untouched.
func wrapErr(entity, id string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundf(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.Conflictf(entity, id, "uniqueness violated (%s)", pgErr.ConstraintName)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Unavailable(entity, err)
	}
	return domain.Unavailable(entity, err)
}
