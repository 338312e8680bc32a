package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

type ClosedDateRepository struct {
	pool *pgxpool.Pool
}

func NewClosedDateRepository(pool *pgxpool.Pool) *ClosedDateRepository {
	return &ClosedDateRepository{pool: pool}
}

// ClosedDatesBetween returns the blocked dates in [start, end],
// ordered by date.
func (r *ClosedDateRepository) ClosedDatesBetween(ctx context.Context, start, end time.Time) ([]domain.ClosedDate, error) {
	const query = `
SELECT date, closure_type
FROM closed_dates
WHERE date BETWEEN $1 AND $2
ORDER BY date`

	rows, err := r.query(ctx, query, domain.DateOnly(start), domain.DateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("closed dates between: %w", err)
	}
	defer rows.Close()

	var dates []domain.ClosedDate
	for rows.Next() {
		var d domain.ClosedDate
		var closureType string
		if err := rows.Scan(&d.Date, &closureType); err != nil {
			return nil, fmt.Errorf("scan closed date: %w", err)
		}
		d.Date = domain.DateOnly(d.Date)
		d.Type = domain.ClosureType(closureType)
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// SaveClosedDates inserts the batch atomically. The primary key on
// date turns a concurrent booking of an overlapping range into a
// conflict instead of a double booking.
func (r *ClosedDateRepository) SaveClosedDates(ctx context.Context, batch []domain.ClosedDate) error {
	const stmt = `INSERT INTO closed_dates (date, closure_type) VALUES ($1, $2)`

	for _, d := range batch {
		if _, err := r.exec(ctx, stmt, domain.DateOnly(d.Date), d.Type); err != nil {
			if isUniqueViolation(err) {
				return domain.ClosedDateConflict(
					d.Date.Format("2006-01-02"), d.Date.Format("2006-01-02"))
			}
			return fmt.Errorf("save closed date: %w", err)
		}
	}
	return nil
}

// DeleteClosedDatesBetween removes every blocked date in [start, end].
func (r *ClosedDateRepository) DeleteClosedDatesBetween(ctx context.Context, start, end time.Time) error {
	const stmt = `DELETE FROM closed_dates WHERE date BETWEEN $1 AND $2`

	if _, err := r.exec(ctx, stmt, domain.DateOnly(start), domain.DateOnly(end)); err != nil {
		return fmt.Errorf("delete closed dates: %w", err)
	}
	return nil
}

func (r *ClosedDateRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ClosedDateRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
