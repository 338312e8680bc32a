package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func (r *PurchaseRepository) CreatePurchase(ctx context.Context, purchase domain.Purchase) error {
	const stmt = `
INSERT INTO purchases (id, account_id, event_date, phone, delivery_address, delivery_fee, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		purchase.ID,
		purchase.AccountID,
		purchase.EventDate,
		purchase.Phone,
		purchase.DeliveryAddress,
		purchase.DeliveryFee,
		purchase.Status,
		purchase.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}

	const itemStmt = `
INSERT INTO purchase_items (purchase_id, variant_id, product_name, quantity, unit_price, note)
VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range purchase.Items {
		_, err := r.exec(ctx, itemStmt,
			purchase.ID,
			item.VariantID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.Note,
		)
		if err != nil {
			return fmt.Errorf("create purchase item: %w", err)
		}
	}
	return nil
}

func (r *PurchaseRepository) GetPurchase(ctx context.Context, id int64) (domain.Purchase, error) {
	return r.getPurchase(ctx, id, false)
}

// GetPurchaseForUpdate locks the purchase row for the duration of the
// surrounding transaction.
func (r *PurchaseRepository) GetPurchaseForUpdate(ctx context.Context, id int64) (domain.Purchase, error) {
	return r.getPurchase(ctx, id, true)
}

func (r *PurchaseRepository) getPurchase(ctx context.Context, id int64, forUpdate bool) (domain.Purchase, error) {
	query := `
SELECT id, account_id, event_date, phone, delivery_address, delivery_fee, status, created_at
FROM purchases
WHERE id = $1`
	if forUpdate {
		query += `
FOR UPDATE`
	}

	var p domain.Purchase
	var status string
	err := r.queryRow(ctx, query, id).Scan(
		&p.ID, &p.AccountID, &p.EventDate, &p.Phone, &p.DeliveryAddress, &p.DeliveryFee, &status, &p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Purchase{}, domain.ErrPurchaseNotFound
		}
		return domain.Purchase{}, fmt.Errorf("get purchase: %w", err)
	}
	p.Status = domain.PurchaseStatus(status)
	p.EventDate = domain.DateOnly(p.EventDate)

	items, err := r.itemsOf(ctx, id)
	if err != nil {
		return domain.Purchase{}, err
	}
	p.Items = items
	return p, nil
}

func (r *PurchaseRepository) itemsOf(ctx context.Context, purchaseID int64) ([]domain.PurchaseItem, error) {
	const query = `
SELECT variant_id, product_name, quantity, unit_price, note
FROM purchase_items
WHERE purchase_id = $1
ORDER BY variant_id`

	rows, err := r.query(ctx, query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("purchase items: %w", err)
	}
	defer rows.Close()

	var items []domain.PurchaseItem
	for rows.Next() {
		var item domain.PurchaseItem
		if err := rows.Scan(&item.VariantID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Note); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PurchaseRepository) UpdatePurchaseStatus(ctx context.Context, id int64, status domain.PurchaseStatus) error {
	const stmt = `UPDATE purchases SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, status)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPurchaseNotFound
	}
	return nil
}

func (r *PurchaseRepository) ListPurchasesByAccount(ctx context.Context, accountID int64) ([]domain.Purchase, error) {
	const query = `
SELECT id, account_id, event_date, phone, delivery_address, delivery_fee, status, created_at
FROM purchases
WHERE account_id = $1
ORDER BY id DESC`

	return r.listPurchases(ctx, query, accountID)
}

func (r *PurchaseRepository) ListAllPurchases(ctx context.Context) ([]domain.Purchase, error) {
	const query = `
SELECT id, account_id, event_date, phone, delivery_address, delivery_fee, status, created_at
FROM purchases
ORDER BY id DESC`

	return r.listPurchases(ctx, query)
}

func (r *PurchaseRepository) listPurchases(ctx context.Context, query string, args ...any) ([]domain.Purchase, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		var status string
		if err := rows.Scan(&p.ID, &p.AccountID, &p.EventDate, &p.Phone, &p.DeliveryAddress, &p.DeliveryFee, &status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.Status = domain.PurchaseStatus(status)
		p.EventDate = domain.DateOnly(p.EventDate)
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *PurchaseRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PurchaseRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *PurchaseRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
