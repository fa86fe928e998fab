package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepositoryInterface {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price, default_destination, stock_quantity, low_stock_threshold, is_active
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Destination, &p.StockQuantity, &p.LowStockThreshold, &p.IsActive)
	if err != nil {
		return domain.Product{}, wrapErr("product", strconv.FormatInt(id, 10), err)
	}
	return p, nil
}

func (r *ProductRepository) GetAddon(ctx context.Context, id int64) (domain.Addon, error) {
	var a domain.Addon
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price_delta, is_active FROM addons WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.PriceDelta, &a.IsActive)
	if err != nil {
		return domain.Addon{}, wrapErr("addon", strconv.FormatInt(id, 10), err)
	}
	return a, nil
}
