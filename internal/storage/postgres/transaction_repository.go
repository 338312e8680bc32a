package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

// activeTransactionIndex backs the one-active-transaction-per-account
// invariant; a concurrent insert races to a unique violation here.
const activeTransactionIndex = "transactions_one_active_per_account"

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, purchase_id, account_id, status, amount, reference_id, payment_url, expires_at, created_at`

func (r *TransactionRepository) CreateTransaction(ctx context.Context, trans domain.Transaction) error {
	const stmt = `
INSERT INTO transactions (id, purchase_id, account_id, status, amount, reference_id, payment_url, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		trans.ID,
		trans.PurchaseID,
		trans.AccountID,
		trans.Status,
		trans.Amount,
		trans.ReferenceID,
		trans.PaymentURL,
		trans.ExpiresAt,
		trans.CreatedAt,
	)
	if err != nil {
		if violatesConstraint(err, activeTransactionIndex) {
			return domain.ErrOngoingTransaction
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindTransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE account_id = $1
ORDER BY created_at, id`

	return r.findTransactions(ctx, query, accountID)
}

func (r *TransactionRepository) FindTransactionsByPurchase(ctx context.Context, purchaseID int64) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE purchase_id = $1
ORDER BY created_at, id`

	return r.findTransactions(ctx, query, purchaseID)
}

// CancelTransactionsOfPurchase cancels every live transaction of the
// purchase. Already-cancelled rows are left untouched, so the call is
// idempotent.
func (r *TransactionRepository) CancelTransactionsOfPurchase(ctx context.Context, purchaseID int64) error {
	const stmt = `
UPDATE transactions
SET status = 'cancelled'
WHERE purchase_id = $1 AND status <> 'cancelled'`

	if _, err := r.exec(ctx, stmt, purchaseID); err != nil {
		return fmt.Errorf("cancel transactions of purchase: %w", err)
	}
	return nil
}

func (r *TransactionRepository) IsTransactionOwner(ctx context.Context, purchaseID, accountID int64) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM transactions WHERE purchase_id = $1 AND account_id = $2
)`

	var owner bool
	if err := r.queryRow(ctx, query, purchaseID, accountID).Scan(&owner); err != nil {
		return false, fmt.Errorf("transaction ownership: %w", err)
	}
	return owner, nil
}

func (r *TransactionRepository) UpdateTransactionStatus(ctx context.Context, transactionID int64, status domain.TransactionStatus) (domain.Transaction, error) {
	const stmt = `
UPDATE transactions
SET status = $2
WHERE id = $1
RETURNING ` + transactionColumns

	t, err := r.scanTransaction(r.queryRow(ctx, stmt, transactionID, status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Transaction{}, domain.ErrTransactionNotFound
		}
		return domain.Transaction{}, fmt.Errorf("update transaction status: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) findTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	var status string
	err := row.Scan(
		&t.ID, &t.PurchaseID, &t.AccountID, &status, &t.Amount,
		&t.ReferenceID, &t.PaymentURL, &t.ExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.Status = domain.TransactionStatus(status)
	return t, nil
}

func (r *TransactionRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *TransactionRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *TransactionRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
