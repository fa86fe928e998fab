package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const orderColumns = `id, order_number, session_id, cashier_id, customer_id, status,
	subtotal, discount, tax, total, void_reason, created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Number, &o.SessionID, &o.CashierID, &o.CustomerID, &o.Status,
		&o.Subtotal, &o.Discount, &o.Tax, &o.Total, &o.VoidReason, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func loadOrder(ctx context.Context, q querier, id int64) (domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, err
	}
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price, total, destination
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Total, &it.Destination); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// AllocateNumber hands out ORD-YYYYMMDD-NNN from the same atomic day counter
// the session numbering uses, under the "order" scope.
func (r *OrderRepository) AllocateNumber(ctx context.Context) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", wrapErr("order", "", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	now := time.Now()
	seq, err := allocateDaySeq(ctx, tx, "order", now)
	if err != nil {
		return "", wrapErr("order", "", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", wrapErr("order", "", err)
	}
	return fmt.Sprintf("ORD-%s-%03d", now.Format("20060102"), seq), nil
}

// ConfirmTx is the single multi-row write that promotes a draft: order head,
// item and addon snapshots, one kitchen order per destination, status log,
// stock decrements, the draft delete and the session-totals refresh. All of
// it commits or none of it.
func (r *OrderRepository) ConfirmTx(ctx context.Context, order domain.Order, draftID int64, draftUpdatedAt time.Time) (domain.Order, []domain.KitchenOrder, []domain.Product, error) {
	did := strconv.FormatInt(draftID, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Order{}, nil, nil, wrapErr("order", "", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out, err := scanOrder(tx.QueryRow(ctx, `
		INSERT INTO orders
			(order_number, session_id, cashier_id, customer_id, status,
			 subtotal, discount, tax, total, void_reason)
		VALUES ($1, $2, $3, $4, 'confirmed', $5, $6, $7, $8, '')
		RETURNING `+orderColumns,
		order.Number, order.SessionID, order.CashierID, order.CustomerID,
		order.Subtotal, order.Discount, order.Tax, order.Total))
	if err != nil {
		return domain.Order{}, nil, nil, wrapErr("order", "", err)
	}

	productIDs := make([]int64, 0, len(order.Items))
	destinations := make(map[domain.Destination]bool)
	for _, it := range order.Items {
		var itemID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price, total, destination)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, out.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.Total, it.Destination).Scan(&itemID)
		if err != nil {
			return domain.Order{}, nil, nil, wrapErr("order", "", err)
		}
		for _, ad := range it.Addons {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_item_addons (item_id, addon_id, name, price_delta, quantity)
				VALUES ($1, $2, $3, $4, $5)
			`, itemID, ad.AddonID, ad.Name, ad.PriceDelta, ad.Quantity); err != nil {
				return domain.Order{}, nil, nil, wrapErr("order", "", err)
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity - $2 WHERE id = $1
		`, it.ProductID, it.Quantity); err != nil {
			return domain.Order{}, nil, nil, wrapErr("product", strconv.FormatInt(it.ProductID, 10), err)
		}
		productIDs = append(productIDs, it.ProductID)
		destinations[it.Destination] = true
	}

	var kitchenOrders []domain.KitchenOrder
	for dest := range destinations {
		var ko domain.KitchenOrder
		err = tx.QueryRow(ctx, `
			INSERT INTO kitchen_orders (order_id, destination, status, priority)
			VALUES ($1, $2, 'pending', $3)
			RETURNING id, order_id, destination, status, priority, processed_by, created_at, started_at, ready_at
		`, out.ID, dest, order.Priority()).Scan(
			&ko.ID, &ko.OrderID, &ko.Destination, &ko.Status, &ko.Priority,
			&ko.ProcessedBy, &ko.CreatedAt, &ko.StartedAt, &ko.ReadyAt)
		if err != nil {
			return domain.Order{}, nil, nil, wrapErr("kitchen_order", "", err)
		}
		kitchenOrders = append(kitchenOrders, ko)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, 'confirmed', $2, now())
	`, out.ID, strconv.FormatInt(order.CashierID, 10)); err != nil {
		return domain.Order{}, nil, nil, wrapErr("order", "", err)
	}

	// The draft must still exist and must not have been edited since the
	// snapshot was read; updated_at is the version stamp every mutation bumps.
	tag, err := tx.Exec(ctx, `
		DELETE FROM current_orders WHERE id = $1 AND updated_at = $2
	`, draftID, draftUpdatedAt)
	if err != nil {
		return domain.Order{}, nil, nil, wrapErr("draft", did, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Order{}, nil, nil, domain.Conflictf("draft", did, "draft changed, confirmed or cleared concurrently")
	}

	if order.SessionID != nil {
		if err := recomputeSessionTotals(ctx, tx, *order.SessionID); err != nil {
			return domain.Order{}, nil, nil, wrapErr("session", "", err)
		}
	}

	var lowStock []domain.Product
	rows, err := tx.Query(ctx, `
		SELECT id, name, price, default_destination, stock_quantity, low_stock_threshold, is_active
		FROM products
		WHERE id = ANY($1) AND stock_quantity <= low_stock_threshold
	`, productIDs)
	if err != nil {
		return domain.Order{}, nil, nil, wrapErr("product", "", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Destination,
			&p.StockQuantity, &p.LowStockThreshold, &p.IsActive); err != nil {
			return domain.Order{}, nil, nil, wrapErr("product", "", err)
		}
		lowStock = append(lowStock, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, nil, nil, wrapErr("product", "", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, nil, nil, wrapErr("order", "", err)
	}
	out.Items = order.Items
	return out, kitchenOrders, lowStock, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := loadOrder(ctx, r.db, id)
	if err != nil {
		return domain.Order{}, wrapErr("order", strconv.FormatInt(id, 10), err)
	}
	return o, nil
}

// AdvanceTx applies exactly one forward step under a row lock. Anything that
// is not the immediate next state comes back as InvalidState.
func (r *OrderRepository) AdvanceTx(ctx context.Context, id int64, target domain.OrderStatus, changedBy string) (domain.Order, error) {
	oid := strconv.FormatInt(id, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current domain.OrderStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	if !current.CanTransitionTo(target) {
		return domain.Order{}, domain.InvalidStatef("order", oid, "cannot advance from %s to %s", current, target)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, target); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, now())
	`, id, target, changedBy); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}

	o, err := loadOrder(ctx, tx, id)
	if err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	if o.SessionID != nil {
		if err := recomputeSessionTotals(ctx, tx, *o.SessionID); err != nil {
			return domain.Order{}, wrapErr("session", "", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	return o, nil
}

// VoidTx is terminal and only reachable from draft, confirmed or preparing.
// The voided order leaves its session's totals in the same transaction.
func (r *OrderRepository) VoidTx(ctx context.Context, id int64, reason, changedBy string) (domain.Order, error) {
	oid := strconv.FormatInt(id, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current domain.OrderStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	if !current.CanTransitionTo(domain.OrderVoided) {
		return domain.Order{}, domain.InvalidStatef("order", oid, "cannot void from %s", current)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = 'voided', void_reason = $2, updated_at = now() WHERE id = $1
	`, id, reason); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, 'voided', $2, now(), $3)
	`, id, changedBy, reason); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}

	o, err := loadOrder(ctx, tx, id)
	if err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	if o.SessionID != nil {
		if err := recomputeSessionTotals(ctx, tx, *o.SessionID); err != nil {
			return domain.Order{}, wrapErr("session", "", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, wrapErr("order", oid, err)
	}
	return o, nil
}
