package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) CartItemsOf(ctx context.Context, accountID int64) ([]domain.CartItem, error) {
	const query = `
SELECT account_id, variant_id, product_name, unit_price, quantity, note
FROM cart_items
WHERE account_id = $1
ORDER BY variant_id`

	rows, err := r.query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.AccountID, &item.VariantID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Note); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CartRepository) UpsertCartItem(ctx context.Context, item domain.CartItem) error {
	const stmt = `
INSERT INTO cart_items (account_id, variant_id, product_name, unit_price, quantity, note)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (account_id, variant_id)
DO UPDATE SET product_name = $3, unit_price = $4, quantity = $5, note = $6`

	if _, err := r.exec(ctx, stmt,
		item.AccountID, item.VariantID, item.ProductName, item.UnitPrice, item.Quantity, item.Note,
	); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) RemoveCartItem(ctx context.Context, accountID, variantID int64) error {
	const stmt = `DELETE FROM cart_items WHERE account_id = $1 AND variant_id = $2`

	tag, err := r.exec(ctx, stmt, accountID, variantID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) ClearCart(ctx context.Context, accountID int64) error {
	const stmt = `DELETE FROM cart_items WHERE account_id = $1`

	if _, err := r.exec(ctx, stmt, accountID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *CartRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CartRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
