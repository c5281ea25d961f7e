// backend-go/internal/pipeline/worker.go
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Worker runs fit jobs over the store estate
type Worker struct {
	fitter Fitter
	config Config
	repo   *Repository
	writer *ModelWriter
}

// runCounters tallies job outcomes across the worker pool.
type runCounters struct {
	fitted  atomic.Int32
	skipped atomic.Int32
	failed  atomic.Int32
}

// NewWorker creates a new fit worker
func NewWorker(fitter Fitter, config Config, db *sql.DB) *Worker {
	return &Worker{
		fitter: fitter,
		config: config,
		repo:   NewRepository(db),
	}
}

// Run fits every active store with enough history and persists the models.
// Individual store failures are recorded on their jobs and do not abort the
// run; infrastructure failures do.
func (w *Worker) Run(ctx context.Context, trigger string) (*FitRun, error) {
	series, err := w.repo.GetStoreSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store series: %w", err)
	}

	log.Info().
		Str("trigger", trigger).
		Str("fitter", w.fitter.Name()).
		Int("stores", len(series)).
		Msg("starting fit run")

	run := &FitRun{
		Trigger:     trigger,
		Fitter:      w.fitter.Name(),
		Status:      RunPending,
		TotalStores: len(series),
		StartedAt:   time.Now().UTC(),
	}
	if err := w.repo.CreateFitRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create fit run: %w", err)
	}

	w.writer = NewModelWriter(w.config, w.repo.UpsertModels)

	// Stable job order regardless of map iteration
	storeIDs := make([]int64, 0, len(series))
	for id := range series {
		storeIDs = append(storeIDs, id)
	}
	sort.Slice(storeIDs, func(i, j int) bool { return storeIDs[i] < storeIDs[j] })

	jobs := make([]*FitJob, 0, len(storeIDs))
	for _, id := range storeIDs {
		s := series[id]
		job := &FitJob{
			FitRunID:  run.ID,
			StoreID:   id,
			StoreName: s.StoreName,
			Months:    len(s.Values),
			Status:    JobQueued,
		}
		if err := w.repo.CreateFitJob(ctx, job); err != nil {
			return run, fmt.Errorf("failed to create fit job: %w", err)
		}
		jobs = append(jobs, job)
	}

	run.Status = RunProcessing
	if err := w.repo.UpdateFitRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to update fit run: %w", err)
	}

	counters := &runCounters{}
	if err := w.processStoresParallel(ctx, jobs, series, counters); err != nil {
		return run, w.failRun(ctx, run, counters, err)
	}

	if err := w.writer.Finalize(ctx); err != nil {
		return run, w.failRun(ctx, run, counters, err)
	}

	run.Status = RunCompleted
	run.FittedStores = int(counters.fitted.Load())
	run.SkippedStores = int(counters.skipped.Load())
	run.FailedStores = int(counters.failed.Load())
	now := time.Now().UTC()
	run.CompletedAt = &now
	if err := w.repo.UpdateFitRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete fit run: %w", err)
	}

	log.Info().
		Int64("run_id", run.ID).
		Int("fitted", run.FittedStores).
		Int("skipped", run.SkippedStores).
		Int("failed", run.FailedStores).
		Msg("fit run completed")

	return run, nil
}

// processStoresParallel fits stores using a worker pool
func (w *Worker) processStoresParallel(ctx context.Context, jobs []*FitJob, series map[int64]*Series, counters *runCounters) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan *FitJob, len(jobs))
	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			for job := range jobChan {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := w.processStore(gctx, job, series[job.StoreID], counters); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// processStore fits a single store. A fit failure marks the job failed and
// returns nil so the rest of the estate still gets fitted; only
// infrastructure errors propagate.
func (w *Worker) processStore(ctx context.Context, job *FitJob, s *Series, counters *runCounters) error {
	startTime := time.Now()

	job.Status = JobProcessing
	if err := w.repo.UpdateFitJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update fit job: %w", err)
	}

	if s == nil || len(s.Values) < w.config.MinHistoryMonths {
		months := 0
		if s != nil {
			months = len(s.Values)
		}
		job.Status = JobSkipped
		job.ErrorMessage = fmt.Sprintf("insufficient history: %d months", months)
		now := time.Now().UTC()
		job.ProcessedAt = &now
		if err := w.repo.UpdateFitJob(ctx, job); err != nil {
			return fmt.Errorf("failed to update fit job: %w", err)
		}
		counters.skipped.Add(1)

		log.Debug().
			Int64("store_id", job.StoreID).
			Int("months", months).
			Msg("store skipped")

		return nil
	}

	model, err := w.fitter.Fit(*s)
	if err != nil {
		w.markJobFailed(ctx, job, err)
		counters.failed.Add(1)
		return nil
	}

	if err := w.writer.Add(ctx, model); err != nil {
		return err
	}

	job.Status = JobCompleted
	now := time.Now().UTC()
	job.ProcessedAt = &now
	if err := w.repo.UpdateFitJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update fit job: %w", err)
	}

	if err := w.repo.IncrementFittedStores(ctx, job.FitRunID); err != nil {
		log.Warn().Err(err).Int64("run_id", job.FitRunID).Msg("failed to increment fitted stores")
	}
	counters.fitted.Add(1)

	log.Debug().
		Int64("store_id", job.StoreID).
		Str("store", job.StoreName).
		Str("mode", model.Mode).
		Dur("took", time.Since(startTime)).
		Msg("store fitted")

	return nil
}

// markJobFailed records the failure on the job row
func (w *Worker) markJobFailed(ctx context.Context, job *FitJob, cause error) {
	job.Status = JobFailed
	job.ErrorMessage = cause.Error()
	job.RetryCount++
	now := time.Now().UTC()
	job.ProcessedAt = &now

	if err := w.repo.UpdateFitJob(ctx, job); err != nil {
		log.Error().Err(err).Int64("job_id", job.ID).Msg("failed to update fit job status")
	}

	log.Warn().
		Err(cause).
		Int64("store_id", job.StoreID).
		Str("store", job.StoreName).
		Int("retry_count", job.RetryCount).
		Msg("store fit failed")
}

// failRun marks the run failed with the counts gathered so far
func (w *Worker) failRun(ctx context.Context, run *FitRun, counters *runCounters, cause error) error {
	run.Status = RunFailed
	run.ErrorMessage = cause.Error()
	run.FittedStores = int(counters.fitted.Load())
	run.SkippedStores = int(counters.skipped.Load())
	run.FailedStores = int(counters.failed.Load())
	now := time.Now().UTC()
	run.CompletedAt = &now

	if err := w.repo.UpdateFitRun(ctx, run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to mark fit run failed")
	}

	return cause
}

// RetryFailed re-runs the failed jobs of a fit run that are still under the
// retry limit
func (w *Worker) RetryFailed(ctx context.Context, runID int64) error {
	jobs, err := w.repo.GetFailedFitJobs(ctx, runID, w.config.RetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to get failed jobs: %w", err)
	}

	if len(jobs) == 0 {
		log.Info().Int64("run_id", runID).Msg("no failed jobs to retry")
		return nil
	}

	if w.config.RetryBackoff > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.config.RetryBackoff):
		}
	}

	log.Info().Int64("run_id", runID).Int("jobs", len(jobs)).Msg("retrying failed fit jobs")

	series, err := w.repo.GetStoreSeries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load store series: %w", err)
	}

	w.writer = NewModelWriter(w.config, w.repo.UpsertModels)

	counters := &runCounters{}
	if err := w.processStoresParallel(ctx, jobs, series, counters); err != nil {
		return err
	}
	if err := w.writer.Finalize(ctx); err != nil {
		return err
	}

	return w.refreshRunCounts(ctx, runID)
}

// refreshRunCounts recounts job outcomes from the job rows so the run record
// stays exact after a retry
func (w *Worker) refreshRunCounts(ctx context.Context, runID int64) error {
	run, err := w.repo.GetFitRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get fit run: %w", err)
	}

	jobs, err := w.repo.GetFitJobsByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get fit jobs: %w", err)
	}

	var fitted, skipped, failed int
	for _, job := range jobs {
		switch job.Status {
		case JobCompleted:
			fitted++
		case JobSkipped:
			skipped++
		case JobFailed:
			failed++
		}
	}

	run.FittedStores = fitted
	run.SkippedStores = skipped
	run.FailedStores = failed
	if failed == 0 && run.Status == RunFailed {
		run.Status = RunCompleted
	}

	return w.repo.UpdateFitRun(ctx, run)
}
