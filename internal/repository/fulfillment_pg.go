package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

type FulfillmentRepository struct {
	db *pgxpool.Pool
}

func NewFulfillmentRepository(db *pgxpool.Pool) FulfillmentRepositoryInterface {
	return &FulfillmentRepository{db: db}
}

const kitchenColumns = `id, order_id, destination, status, priority, processed_by, created_at, started_at, ready_at`

func scanKitchenOrder(row pgx.Row) (domain.KitchenOrder, error) {
	var ko domain.KitchenOrder
	err := row.Scan(&ko.ID, &ko.OrderID, &ko.Destination, &ko.Status, &ko.Priority,
		&ko.ProcessedBy, &ko.CreatedAt, &ko.StartedAt, &ko.ReadyAt)
	return ko, err
}

func (r *FulfillmentRepository) GetKitchenOrder(ctx context.Context, id int64) (domain.KitchenOrder, error) {
	ko, err := scanKitchenOrder(r.db.QueryRow(ctx, `SELECT `+kitchenColumns+` FROM kitchen_orders WHERE id = $1`, id))
	if err != nil {
		return domain.KitchenOrder{}, wrapErr("kitchen_order", strconv.FormatInt(id, 10), err)
	}
	return ko, nil
}

// StartPreparingTx claims a pending entry for a worker. A redelivered message
// finds the row already past pending and reports started=false, no error.
func (r *FulfillmentRepository) StartPreparingTx(ctx context.Context, id int64, worker string) (bool, error) {
	kid := strconv.FormatInt(id, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, wrapErr("kitchen_order", kid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status domain.KitchenStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM kitchen_orders WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
		return false, wrapErr("kitchen_order", kid, err)
	}
	if status != domain.KitchenPending {
		return false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE kitchen_orders
		SET status = 'preparing', processed_by = $2, started_at = now()
		WHERE id = $1
	`, id, worker); err != nil {
		return false, wrapErr("kitchen_order", kid, err)
	}
	return true, wrapErr("kitchen_order", kid, tx.Commit(ctx))
}

// MarkReadyTx finishes a preparing entry and reports how many of the same
// order's entries are still short of ready; zero means the whole order is up.
func (r *FulfillmentRepository) MarkReadyTx(ctx context.Context, id int64, worker string) (int64, int64, error) {
	kid := strconv.FormatInt(id, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, wrapErr("kitchen_order", kid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status domain.KitchenStatus
	var orderID int64
	if err := tx.QueryRow(ctx, `SELECT status, order_id FROM kitchen_orders WHERE id = $1 FOR UPDATE`, id).Scan(&status, &orderID); err != nil {
		return 0, 0, wrapErr("kitchen_order", kid, err)
	}
	if !status.CanTransitionTo(domain.KitchenReady) {
		return 0, 0, domain.InvalidStatef("kitchen_order", kid, "cannot mark ready from %s", status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE kitchen_orders SET status = 'ready', ready_at = now() WHERE id = $1
	`, id); err != nil {
		return 0, 0, wrapErr("kitchen_order", kid, err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE fulfillment_workers SET orders_processed = orders_processed + 1, last_seen = now()
		WHERE name = $1
	`, worker); err != nil {
		return 0, 0, wrapErr("worker", worker, err)
	}

	var remaining int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM kitchen_orders
		WHERE order_id = $1 AND status IN ('pending', 'preparing')
	`, orderID).Scan(&remaining); err != nil {
		return 0, 0, wrapErr("kitchen_order", kid, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, wrapErr("kitchen_order", kid, err)
	}
	return remaining, orderID, nil
}

func (r *FulfillmentRepository) MarkServedTx(ctx context.Context, id int64, worker string) error {
	kid := strconv.FormatInt(id, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr("kitchen_order", kid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status domain.KitchenStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM kitchen_orders WHERE id = $1 FOR UPDATE`, id).Scan(&status); err != nil {
		return wrapErr("kitchen_order", kid, err)
	}
	if !status.CanTransitionTo(domain.KitchenServed) {
		return domain.InvalidStatef("kitchen_order", kid, "cannot mark served from %s", status)
	}
	if _, err := tx.Exec(ctx, `UPDATE kitchen_orders SET status = 'served' WHERE id = $1`, id); err != nil {
		return wrapErr("kitchen_order", kid, err)
	}
	return wrapErr("kitchen_order", kid, tx.Commit(ctx))
}

// RegisterOrFail rejects a second online worker under the same name.
func (r *FulfillmentRepository) RegisterOrFail(ctx context.Context, name string, dest domain.Destination) error {
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM fulfillment_workers WHERE name = $1`, name).Scan(&status)
	switch {
	case err == pgx.ErrNoRows:
		_, err = r.db.Exec(ctx, `
			INSERT INTO fulfillment_workers (name, destination, status, last_seen)
			VALUES ($1, $2, 'online', now())
		`, name, dest)
		return wrapErr("worker", name, err)
	case err != nil:
		return wrapErr("worker", name, err)
	default:
		if status == "online" {
			return domain.Conflictf("worker", name, "worker already online")
		}
		_, err = r.db.Exec(ctx, `
			UPDATE fulfillment_workers SET destination = $2, status = 'online', last_seen = now()
			WHERE name = $1
		`, name, dest)
		return wrapErr("worker", name, err)
	}
}

func (r *FulfillmentRepository) Heartbeat(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE fulfillment_workers SET last_seen = now() WHERE name = $1`, name)
	return wrapErr("worker", name, err)
}

func (r *FulfillmentRepository) SetOffline(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `UPDATE fulfillment_workers SET status = 'offline', last_seen = now() WHERE name = $1`, name)
	return wrapErr("worker", name, err)
}
