// backend-go/internal/repository/postgres/analytics_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/repository"
)

type analyticsRepository struct {
	db *DB
}

func NewAnalyticsRepository(db *DB) *analyticsRepository {
	return &analyticsRepository{db: db}
}

// GetMonthlyRows returns every store-month in [from, to) with actual and
// budget lined up, including months that only have one of the two.
func (r *analyticsRepository) GetMonthlyRows(ctx context.Context, from, to time.Time) ([]repository.MonthlyRow, error) {
	query := `
		WITH sales AS (
			SELECT store_id, month, net_sales
			FROM monthly_sales
			WHERE month >= $1 AND month < $2
		),
		targets AS (
			SELECT store_id, month, amount
			FROM budgets
			WHERE month >= $1 AND month < $2
		)
		SELECT
			COALESCE(s.store_id, t.store_id) AS store_id,
			COALESCE(s.month, t.month)       AS month,
			COALESCE(s.net_sales, 0)         AS actual,
			COALESCE(t.amount, 0)            AS budget,
			s.store_id IS NOT NULL           AS has_actual
		FROM sales s
		FULL OUTER JOIN targets t
			ON t.store_id = s.store_id AND t.month = s.month
		ORDER BY 1, 2
	`

	rows := []repository.MonthlyRow{}
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to get monthly rows: %w", err)
	}

	log.Debug().Int("rows", len(rows)).Time("from", from).Time("to", to).Msg("analytics: monthly rows fetched")

	return rows, nil
}

// GetStoreMonthlyRows returns one row per month of the window for a single
// store, whether or not anything is booked there yet.
func (r *analyticsRepository) GetStoreMonthlyRows(ctx context.Context, storeID int64, from, to time.Time) ([]repository.MonthlyRow, error) {
	query := `
		SELECT
			$1::bigint                AS store_id,
			g.month::date             AS month,
			COALESCE(ms.net_sales, 0) AS actual,
			COALESCE(b.amount, 0)     AS budget,
			ms.id IS NOT NULL         AS has_actual
		FROM generate_series($2::date, $3::date - interval '1 month', interval '1 month') AS g(month)
		LEFT JOIN monthly_sales ms ON ms.store_id = $1 AND ms.month = g.month
		LEFT JOIN budgets b ON b.store_id = $1 AND b.month = g.month
		ORDER BY g.month
	`

	rows := []repository.MonthlyRow{}
	if err := r.db.SelectContext(ctx, &rows, query, storeID, from, to); err != nil {
		return nil, fmt.Errorf("failed to get monthly rows for store %d: %w", storeID, err)
	}

	return rows, nil
}

// GetStoreTotals sums net sales per store over [from, to), keeping stores
// with no sales in the window at zero.
func (r *analyticsRepository) GetStoreTotals(ctx context.Context, from, to time.Time) ([]repository.StoreTotal, error) {
	query := `
		SELECT
			st.id                         AS store_id,
			st.name,
			st.area,
			st.active,
			COALESCE(SUM(ms.net_sales), 0) AS total
		FROM stores st
		LEFT JOIN monthly_sales ms
			ON ms.store_id = st.id AND ms.month >= $1 AND ms.month < $2
		GROUP BY st.id, st.name, st.area, st.active
		ORDER BY total DESC, st.name
	`

	totals := []repository.StoreTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to get store totals: %w", err)
	}

	return totals, nil
}

// GetSalesMatrix returns the raw store-month observations in [from, to) so
// callers can align series for correlation work.
func (r *analyticsRepository) GetSalesMatrix(ctx context.Context, from, to time.Time) ([]repository.SalesCell, error) {
	query := `
		SELECT store_id, month, net_sales
		FROM monthly_sales
		WHERE month >= $1 AND month < $2
		ORDER BY store_id, month
	`

	cells := []repository.SalesCell{}
	if err := r.db.SelectContext(ctx, &cells, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to get sales matrix: %w", err)
	}

	return cells, nil
}
