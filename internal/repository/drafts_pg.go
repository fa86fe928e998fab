package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

type DraftRepository struct {
	db *pgxpool.Pool
}

func NewDraftRepository(db *pgxpool.Pool) DraftRepositoryInterface {
	return &DraftRepository{db: db}
}

const draftColumns = `id, cashier_id, table_id, session_id, is_on_hold,
	subtotal, discount, tax, total, notes, created_at, updated_at`

func scanDraft(row pgx.Row) (domain.CurrentOrder, error) {
	var d domain.CurrentOrder
	err := row.Scan(&d.ID, &d.CashierID, &d.TableID, &d.SessionID, &d.IsOnHold,
		&d.Subtotal, &d.Discount, &d.Tax, &d.Total, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// recomputeDraft re-derives item totals and then the draft totals from the
// current child rows, inside the caller's transaction. It runs after every
// item or addon mutation so the stored totals are never observably stale.
func recomputeDraft(ctx context.Context, tx pgx.Tx, draftID int64) error {
	if _, err := tx.Exec(ctx, `
		UPDATE current_order_items i SET
			subtotal = round(i.unit_price * i.quantity, 2),
			total    = round(i.unit_price * i.quantity, 2) + COALESCE((
				SELECT SUM(round(a.price_delta * a.quantity, 2))
				FROM current_order_item_addons a WHERE a.item_id = i.id
			), 0)
		WHERE i.current_order_id = $1
	`, draftID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE current_orders co SET
			subtotal   = t.s,
			total      = t.s - co.discount + co.tax,
			updated_at = now()
		FROM (
			SELECT COALESCE(SUM(i.total), 0) AS s
			FROM current_order_items i WHERE i.current_order_id = $1
		) t
		WHERE co.id = $1
	`, draftID)
	return err
}

func (r *DraftRepository) Create(ctx context.Context, draft domain.CurrentOrder) (domain.CurrentOrder, error) {
	d, err := scanDraft(r.db.QueryRow(ctx, `
		INSERT INTO current_orders
			(cashier_id, table_id, session_id, is_on_hold, subtotal, discount, tax, total, notes)
		VALUES ($1, $2, $3, false, 0, 0, 0, 0, $4)
		RETURNING `+draftColumns,
		draft.CashierID, draft.TableID, draft.SessionID, draft.Notes))
	if err != nil {
		return domain.CurrentOrder{}, wrapErr("draft", "", err)
	}
	return d, nil
}

// Get filters by owner in the query itself; ownership isolation is enforced
// on every read, not only at creation.
func (r *DraftRepository) Get(ctx context.Context, draftID, cashierID int64) (domain.CurrentOrder, error) {
	did := strconv.FormatInt(draftID, 10)
	d, err := scanDraft(r.db.QueryRow(ctx, `
		SELECT `+draftColumns+` FROM current_orders WHERE id = $1 AND cashier_id = $2
	`, draftID, cashierID))
	if err != nil {
		return domain.CurrentOrder{}, wrapErr("draft", did, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, current_order_id, product_id, name, quantity, unit_price, subtotal, total
		FROM current_order_items WHERE current_order_id = $1 ORDER BY id
	`, draftID)
	if err != nil {
		return domain.CurrentOrder{}, wrapErr("draft", did, err)
	}
	defer rows.Close()
	itemIdx := make(map[int64]int)
	for rows.Next() {
		var it domain.CurrentOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.Total); err != nil {
			return domain.CurrentOrder{}, wrapErr("draft", did, err)
		}
		itemIdx[it.ID] = len(d.Items)
		d.Items = append(d.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.CurrentOrder{}, wrapErr("draft", did, err)
	}

	adRows, err := r.db.Query(ctx, `
		SELECT a.id, a.item_id, a.addon_id, a.name, a.price_delta, a.quantity
		FROM current_order_item_addons a
		JOIN current_order_items i ON i.id = a.item_id
		WHERE i.current_order_id = $1 ORDER BY a.id
	`, draftID)
	if err != nil {
		return domain.CurrentOrder{}, wrapErr("draft", did, err)
	}
	defer adRows.Close()
	for adRows.Next() {
		var ad domain.CurrentOrderItemAddon
		if err := adRows.Scan(&ad.ID, &ad.ItemID, &ad.AddonID, &ad.Name, &ad.PriceDelta, &ad.Quantity); err != nil {
			return domain.CurrentOrder{}, wrapErr("draft", did, err)
		}
		if idx, ok := itemIdx[ad.ItemID]; ok {
			d.Items[idx].Addons = append(d.Items[idx].Addons, ad)
		}
	}
	if err := adRows.Err(); err != nil {
		return domain.CurrentOrder{}, wrapErr("draft", did, err)
	}
	return d, nil
}

func (r *DraftRepository) Owner(ctx context.Context, draftID int64) (int64, error) {
	var owner int64
	err := r.db.QueryRow(ctx, `SELECT cashier_id FROM current_orders WHERE id = $1`, draftID).Scan(&owner)
	if err != nil {
		return 0, wrapErr("draft", strconv.FormatInt(draftID, 10), err)
	}
	return owner, nil
}

func (r *DraftRepository) ItemDraft(ctx context.Context, itemID int64) (int64, error) {
	var draftID int64
	err := r.db.QueryRow(ctx, `SELECT current_order_id FROM current_order_items WHERE id = $1`, itemID).Scan(&draftID)
	if err != nil {
		return 0, wrapErr("draft_item", strconv.FormatInt(itemID, 10), err)
	}
	return draftID, nil
}

func (r *DraftRepository) AddItemTx(ctx context.Context, draftID int64, item domain.CurrentOrderItem) (domain.CurrentOrderItem, error) {
	did := strconv.FormatInt(draftID, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.CurrentOrderItem{}, wrapErr("draft", did, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var out domain.CurrentOrderItem
	err = tx.QueryRow(ctx, `
		INSERT INTO current_order_items
			(current_order_id, product_id, name, quantity, unit_price, subtotal, total)
		VALUES ($1, $2, $3, $4, $5, round($5 * $4, 2), round($5 * $4, 2))
		RETURNING id, current_order_id, product_id, name, quantity, unit_price, subtotal, total
	`, draftID, item.ProductID, item.Name, item.Quantity, item.UnitPrice).Scan(
		&out.ID, &out.OrderID, &out.ProductID, &out.Name, &out.Quantity, &out.UnitPrice, &out.Subtotal, &out.Total)
	if err != nil {
		return domain.CurrentOrderItem{}, wrapErr("draft", did, err)
	}
	if err := recomputeDraft(ctx, tx, draftID); err != nil {
		return domain.CurrentOrderItem{}, wrapErr("draft", did, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.CurrentOrderItem{}, wrapErr("draft", did, err)
	}
	return out, nil
}

func (r *DraftRepository) AddAddonTx(ctx context.Context, itemID int64, addon domain.CurrentOrderItemAddon) (domain.CurrentOrderItemAddon, error) {
	iid := strconv.FormatInt(itemID, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.CurrentOrderItemAddon{}, wrapErr("draft_item", iid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var draftID int64
	if err := tx.QueryRow(ctx, `SELECT current_order_id FROM current_order_items WHERE id = $1 FOR UPDATE`, itemID).Scan(&draftID); err != nil {
		return domain.CurrentOrderItemAddon{}, wrapErr("draft_item", iid, err)
	}

	var out domain.CurrentOrderItemAddon
	err = tx.QueryRow(ctx, `
		INSERT INTO current_order_item_addons (item_id, addon_id, name, price_delta, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, item_id, addon_id, name, price_delta, quantity
	`, itemID, addon.AddonID, addon.Name, addon.PriceDelta, addon.Quantity).Scan(
		&out.ID, &out.ItemID, &out.AddonID, &out.Name, &out.PriceDelta, &out.Quantity)
	if err != nil {
		return domain.CurrentOrderItemAddon{}, wrapErr("draft_item", iid, err)
	}
	if err := recomputeDraft(ctx, tx, draftID); err != nil {
		return domain.CurrentOrderItemAddon{}, wrapErr("draft_item", iid, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.CurrentOrderItemAddon{}, wrapErr("draft_item", iid, err)
	}
	return out, nil
}

func (r *DraftRepository) UpdateQuantityTx(ctx context.Context, itemID int64, qty domain.Quantity) error {
	iid := strconv.FormatInt(itemID, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr("draft_item", iid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var draftID int64
	err = tx.QueryRow(ctx, `
		UPDATE current_order_items SET quantity = $2 WHERE id = $1 RETURNING current_order_id
	`, itemID, qty).Scan(&draftID)
	if err != nil {
		return wrapErr("draft_item", iid, err)
	}
	if err := recomputeDraft(ctx, tx, draftID); err != nil {
		return wrapErr("draft_item", iid, err)
	}
	return wrapErr("draft_item", iid, tx.Commit(ctx))
}

func (r *DraftRepository) RemoveItemTx(ctx context.Context, itemID int64) error {
	iid := strconv.FormatInt(itemID, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr("draft_item", iid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var draftID int64
	err = tx.QueryRow(ctx, `
		DELETE FROM current_order_items WHERE id = $1 RETURNING current_order_id
	`, itemID).Scan(&draftID)
	if err != nil {
		return wrapErr("draft_item", iid, err)
	}
	if err := recomputeDraft(ctx, tx, draftID); err != nil {
		return wrapErr("draft_item", iid, err)
	}
	return wrapErr("draft_item", iid, tx.Commit(ctx))
}

func (r *DraftRepository) SetHold(ctx context.Context, draftID int64, hold bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE current_orders SET is_on_hold = $2, updated_at = now() WHERE id = $1`, draftID, hold)
	if err != nil {
		return wrapErr("draft", strconv.FormatInt(draftID, 10), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	return nil
}

// DeleteAllForCashier never takes a different owner filter: destructive bulk
// clears are self-service only.
func (r *DraftRepository) DeleteAllForCashier(ctx context.Context, cashierID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM current_orders WHERE cashier_id = $1`, cashierID)
	if err != nil {
		return 0, wrapErr("draft", "", err)
	}
	return tag.RowsAffected(), nil
}

func (r *DraftRepository) Delete(ctx context.Context, draftID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM current_orders WHERE id = $1`, draftID)
	if err != nil {
		return wrapErr("draft", strconv.FormatInt(draftID, 10), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	return nil
}
