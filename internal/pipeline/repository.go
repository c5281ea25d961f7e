// backend-go/internal/pipeline/repository.go
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

// Repository handles database operations for fit-run tracking, series
// loading and model persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new fit pipeline repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateFitRun creates a new fit run record
func (r *Repository) CreateFitRun(ctx context.Context, run *FitRun) error {
	query := `
		INSERT INTO fit_runs (
			triggered_by, fitter, status, total_stores,
			fitted_stores, skipped_stores, failed_stores, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.Trigger, run.Fitter, run.Status, run.TotalStores,
		run.FittedStores, run.SkippedStores, run.FailedStores, run.StartedAt,
	).Scan(&run.ID)

	return err
}

// UpdateFitRun updates an existing fit run
func (r *Repository) UpdateFitRun(ctx context.Context, run *FitRun) error {
	query := `
		UPDATE fit_runs
		SET status = $1, fitted_stores = $2, skipped_stores = $3,
		    failed_stores = $4, completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.FittedStores, run.SkippedStores,
		run.FailedStores, run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetFitRun retrieves a fit run by ID
func (r *Repository) GetFitRun(ctx context.Context, id int64) (*FitRun, error) {
	query := `
		SELECT id, triggered_by, fitter, status, total_stores,
		       fitted_stores, skipped_stores, failed_stores,
		       started_at, completed_at, error_message
		FROM fit_runs
		WHERE id = $1
	`

	run := &FitRun{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Trigger, &run.Fitter, &run.Status, &run.TotalStores,
		&run.FittedStores, &run.SkippedStores, &run.FailedStores,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetLatestFitRun retrieves the most recently started fit run, or nil when
// no run has ever happened
func (r *Repository) GetLatestFitRun(ctx context.Context) (*FitRun, error) {
	query := `
		SELECT id, triggered_by, fitter, status, total_stores,
		       fitted_stores, skipped_stores, failed_stores,
		       started_at, completed_at, error_message
		FROM fit_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	run := &FitRun{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.Trigger, &run.Fitter, &run.Status, &run.TotalStores,
		&run.FittedStores, &run.SkippedStores, &run.FailedStores,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CreateFitJob creates a new fit job record
func (r *Repository) CreateFitJob(ctx context.Context, job *FitJob) error {
	query := `
		INSERT INTO fit_jobs (
			fit_run_id, store_id, store_name, months, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		job.FitRunID, job.StoreID, job.StoreName, job.Months, job.Status, job.ErrorMessage,
	).Scan(&job.ID)

	return err
}

// UpdateFitJob updates an existing fit job
func (r *Repository) UpdateFitJob(ctx context.Context, job *FitJob) error {
	query := `
		UPDATE fit_jobs
		SET status = $1, error_message = $2, processed_at = $3, retry_count = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(
		ctx, query,
		job.Status, job.ErrorMessage, job.ProcessedAt, job.RetryCount, job.ID,
	)

	return err
}

// GetFitJobsByRunID retrieves all fit jobs for a run
func (r *Repository) GetFitJobsByRunID(ctx context.Context, runID int64) ([]*FitJob, error) {
	query := `
		SELECT id, fit_run_id, store_id, store_name, months, status,
		       error_message, processed_at, retry_count
		FROM fit_jobs
		WHERE fit_run_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*FitJob
	for rows.Next() {
		job := &FitJob{}
		err := rows.Scan(
			&job.ID, &job.FitRunID, &job.StoreID, &job.StoreName, &job.Months,
			&job.Status, &job.ErrorMessage, &job.ProcessedAt, &job.RetryCount,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// GetFailedFitJobs retrieves failed jobs still under the retry limit
func (r *Repository) GetFailedFitJobs(ctx context.Context, runID int64, maxRetries int) ([]*FitJob, error) {
	query := `
		SELECT fj.id, fj.fit_run_id, fj.store_id, fj.store_name, fj.months, fj.status,
		       fj.error_message, fj.processed_at, fj.retry_count
		FROM fit_jobs fj
		JOIN fit_runs fr ON fj.fit_run_id = fr.id
		WHERE fr.id = $1
		  AND fj.status = $2
		  AND fj.retry_count < $3
		ORDER BY fj.id
	`

	rows, err := r.db.QueryContext(ctx, query, runID, JobFailed, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*FitJob
	for rows.Next() {
		job := &FitJob{}
		err := rows.Scan(
			&job.ID, &job.FitRunID, &job.StoreID, &job.StoreName, &job.Months,
			&job.Status, &job.ErrorMessage, &job.ProcessedAt, &job.RetryCount,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// IncrementFittedStores atomically increments the fitted store count
func (r *Repository) IncrementFittedStores(ctx context.Context, runID int64) error {
	query := `
		UPDATE fit_runs
		SET fitted_stores = fitted_stores + 1
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, runID)
	return err
}

// GetFitStats retrieves aggregate statistics over recent fit runs
func (r *Repository) GetFitStats(ctx context.Context, since time.Time) (*RunStats, error) {
	query := `
		SELECT
			COUNT(*) as total_runs,
			COUNT(CASE WHEN status = $2 THEN 1 END) as completed_runs,
			COUNT(CASE WHEN status = $3 THEN 1 END) as failed_runs,
			COALESCE(SUM(fitted_stores), 0) as stores_fitted,
			MAX(completed_at) as last_run_at
		FROM fit_runs
		WHERE started_at >= $1
	`

	stats := &RunStats{}
	err := r.db.QueryRowContext(
		ctx, query,
		since, RunCompleted, RunFailed,
	).Scan(
		&stats.TotalRuns,
		&stats.CompletedRuns,
		&stats.FailedRuns,
		&stats.StoresFitted,
		&stats.LastRunAt,
	)

	if err == sql.ErrNoRows {
		return &RunStats{}, nil
	}

	return stats, err
}

// GetStoreSeries loads the full monthly sales history for every active
// store, keyed by store id. Each series is contiguous from its first sale
// month to its last; months without a sales row stay at zero.
func (r *Repository) GetStoreSeries(ctx context.Context) (map[int64]*Series, error) {
	query := `
		SELECT st.id, st.name, ms.month, ms.net_sales
		FROM stores st
		JOIN monthly_sales ms ON ms.store_id = st.id
		WHERE st.active = TRUE
		ORDER BY st.id, ms.month
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type cell struct {
		month time.Time
		value float64
	}
	names := make(map[int64]string)
	cells := make(map[int64][]cell)
	for rows.Next() {
		var (
			id    int64
			name  string
			month time.Time
			value float64
		)
		if err := rows.Scan(&id, &name, &month, &value); err != nil {
			return nil, err
		}
		names[id] = name
		cells[id] = append(cells[id], cell{month: month.UTC(), value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	series := make(map[int64]*Series, len(cells))
	for id, cs := range cells {
		first := cs[0].month
		last := cs[len(cs)-1].month
		values := make([]float64, monthSpan(first, last)+1)
		for _, c := range cs {
			values[monthSpan(first, c.month)] = c.value
		}
		series[id] = &Series{
			StoreID:   id,
			StoreName: names[id],
			Start:     first,
			Values:    values,
		}
	}

	return series, nil
}

// UpsertModels writes a batch of fitted models in one transaction, replacing
// any previous fit for the same store
func (r *Repository) UpsertModels(ctx context.Context, models []*domain.StoreModel) error {
	if len(models) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin model upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO store_models (
			store_id, mode, k, l, l_post, l_post2, base,
			t0_strategy, t0, initial_ratio, shock_idx, shock_idx2,
			nudge, nudge_decay, std_dev, seasonal,
			series_start, sample_months, rmse, mape, fitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (store_id) DO UPDATE SET
			mode = EXCLUDED.mode,
			k = EXCLUDED.k,
			l = EXCLUDED.l,
			l_post = EXCLUDED.l_post,
			l_post2 = EXCLUDED.l_post2,
			base = EXCLUDED.base,
			t0_strategy = EXCLUDED.t0_strategy,
			t0 = EXCLUDED.t0,
			initial_ratio = EXCLUDED.initial_ratio,
			shock_idx = EXCLUDED.shock_idx,
			shock_idx2 = EXCLUDED.shock_idx2,
			nudge = EXCLUDED.nudge,
			nudge_decay = EXCLUDED.nudge_decay,
			std_dev = EXCLUDED.std_dev,
			seasonal = EXCLUDED.seasonal,
			series_start = EXCLUDED.series_start,
			sample_months = EXCLUDED.sample_months,
			rmse = EXCLUDED.rmse,
			mape = EXCLUDED.mape,
			fitted_at = EXCLUDED.fitted_at
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare model upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range models {
		_, err := stmt.ExecContext(
			ctx,
			m.StoreID, m.Mode, m.K, m.L, m.LPost, m.LPost2, m.Base,
			m.T0Strategy, m.T0, m.InitialRatio, m.ShockIdx, m.ShockIdx2,
			m.Nudge, m.NudgeDecay, m.StdDev, m.Seasonal,
			m.SeriesStart, m.SampleMonths, m.RMSE, m.MAPE, m.FittedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert model for store %d: %w", m.StoreID, err)
		}
	}

	return tx.Commit()
}

// monthSpan counts whole calendar months from one month to another.
func monthSpan(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
