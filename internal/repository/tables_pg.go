package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

type TableRepository struct {
	db *pgxpool.Pool
}

func NewTableRepository(db *pgxpool.Pool) TableRepositoryInterface {
	return &TableRepository{db: db}
}

func (r *TableRepository) Get(ctx context.Context, id int64) (domain.RestaurantTable, error) {
	var t domain.RestaurantTable
	err := r.db.QueryRow(ctx, `
		SELECT id, label, status, current_session_id, updated_at FROM restaurant_tables WHERE id = $1
	`, id).Scan(&t.ID, &t.Label, &t.Status, &t.CurrentSessionID, &t.UpdatedAt)
	if err != nil {
		return domain.RestaurantTable{}, wrapErr("table", strconv.FormatInt(id, 10), err)
	}
	return t, nil
}

func (r *TableRepository) List(ctx context.Context) ([]domain.RestaurantTable, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, label, status, current_session_id, updated_at FROM restaurant_tables ORDER BY label
	`)
	if err != nil {
		return nil, wrapErr("table", "", err)
	}
	defer rows.Close()
	var out []domain.RestaurantTable
	for rows.Next() {
		var t domain.RestaurantTable
		if err := rows.Scan(&t.ID, &t.Label, &t.Status, &t.CurrentSessionID, &t.UpdatedAt); err != nil {
			return nil, wrapErr("table", "", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("table", "", rows.Err())
}

func (r *TableRepository) CountOpenSessions(ctx context.Context, tableID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_sessions WHERE table_id = $1 AND status = 'open'
	`, tableID).Scan(&n)
	if err != nil {
		return 0, wrapErr("table", strconv.FormatInt(tableID, 10), err)
	}
	return n, nil
}

func (r *TableRepository) Release(ctx context.Context, tableID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE restaurant_tables SET status = 'available', current_session_id = NULL, updated_at = now()
		WHERE id = $1
	`, tableID)
	return wrapErr("table", strconv.FormatInt(tableID, 10), err)
}
