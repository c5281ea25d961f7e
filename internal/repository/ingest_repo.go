// backend-go/internal/repository/ingest_repo.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type IngestRepository struct {
	db *sql.DB
}

func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// UpsertStore creates or refreshes a store by name and returns its id. Area
// and city only overwrite existing values when the incoming row carries them.
func (r *IngestRepository) UpsertStore(ctx context.Context, name, area, city string) (int64, error) {
	query := `
		INSERT INTO stores (name, area, city, active, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			area = COALESCE(NULLIF(EXCLUDED.area, ''), stores.area),
			city = COALESCE(NULLIF(EXCLUDED.city, ''), stores.city),
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, name, area, city).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert store: %w", err)
	}
	return id, nil
}

// UpsertMonthlySales books one month of net sales for a store.
func (r *IngestRepository) UpsertMonthlySales(ctx context.Context, storeID int64, month time.Time, netSales float64, transactions int64) error {
	query := `
		INSERT INTO monthly_sales (store_id, month, net_sales, transactions, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (store_id, month)
		DO UPDATE SET
			net_sales = EXCLUDED.net_sales,
			transactions = EXCLUDED.transactions,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, storeID, month, netSales, transactions)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly sales: %w", err)
	}
	return nil
}

// UpsertBudget books the target amount for a store-month.
func (r *IngestRepository) UpsertBudget(ctx context.Context, storeID int64, month time.Time, amount float64) error {
	query := `
		INSERT INTO budgets (store_id, month, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (store_id, month)
		DO UPDATE SET amount = EXCLUDED.amount
	`
	_, err := r.db.ExecContext(ctx, query, storeID, month, amount)
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// MarkInactiveSince flags stores with no sales booked after the cutoff so
// forecasts stop extrapolating growth for them.
func (r *IngestRepository) MarkInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE stores SET active = FALSE, updated_at = NOW()
		WHERE active = TRUE
		  AND NOT EXISTS (
			SELECT 1 FROM monthly_sales ms
			WHERE ms.store_id = stores.id AND ms.month >= $1
		  )
	`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark inactive stores: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}
