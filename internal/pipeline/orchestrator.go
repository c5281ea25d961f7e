// backend-go/internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
)

// Orchestrator coordinates a full fit over the store estate: one worker run,
// an automatic retry pass for failed jobs, then completion hooks (cache
// invalidation lives there).
type Orchestrator struct {
	db         *sql.DB
	cfg        Config
	makeW      func(f Fitter, cfg Config, db *sql.DB) *Worker
	onComplete []func(context.Context)
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(db *sql.DB, cfg Config) *Orchestrator {
	return &Orchestrator{
		db:    db,
		cfg:   cfg,
		makeW: NewWorker,
	}
}

// OnComplete registers a hook invoked after every run that persisted models,
// including partially failed ones.
func (o *Orchestrator) OnComplete(fn func(context.Context)) {
	o.onComplete = append(o.onComplete, fn)
}

// Run executes one fit run with the given fitter. Failed jobs get one
// best-effort retry pass before the run is reported.
func (o *Orchestrator) Run(ctx context.Context, f Fitter, trigger string) (*FitRun, error) {
	worker := o.makeW(f, o.cfg, o.db)

	run, err := worker.Run(ctx, trigger)
	if err != nil {
		return run, err
	}

	if run.FailedStores > 0 && o.cfg.RetryAttempts > 0 {
		if err := worker.RetryFailed(ctx, run.ID); err != nil {
			log.Warn().Err(err).Int64("run_id", run.ID).Msg("retry pass failed")
		} else if refreshed, err := worker.repo.GetFitRun(ctx, run.ID); err == nil {
			run = refreshed
		}
	}

	for _, fn := range o.onComplete {
		fn(ctx)
	}

	return run, nil
}

// Stats reports aggregate run metrics since the given time.
func (o *Orchestrator) Stats(ctx context.Context, since time.Time) (*RunStats, error) {
	return NewRepository(o.db).GetFitStats(ctx, since)
}
