// backend-go/internal/pipeline/types.go
package pipeline

import (
	"runtime"
	"time"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

// Fitter turns a store's monthly sales history into a persisted growth model.
// The concrete implementation lives in pipeline/modelfit; the worker only
// depends on this interface.
type Fitter interface {
	// Name identifies the fitting method, recorded on the run
	Name() string

	// Fit estimates model parameters from the series. The returned model
	// carries the store id, series start and sample length of its input.
	Fit(series Series) (*domain.StoreModel, error)
}

// Series is one store's contiguous monthly sales history. Values start at
// Start and advance one calendar month per index; months without a sales row
// count as zero.
type Series struct {
	StoreID   int64
	StoreName string
	Start     time.Time
	Values    []float64
}

// Config holds configuration for a fit run
type Config struct {
	WorkerCount      int           // Number of concurrent fit workers
	BatchSize        int           // Models to buffer before flushing to the database
	FlushInterval    time.Duration // Max time to hold buffered models
	MinHistoryMonths int           // Stores with less history are skipped
	RetryAttempts    int           // Number of retries when re-running failed jobs
	RetryBackoff     time.Duration // Backoff duration between retries
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount:      runtime.NumCPU(),
		BatchSize:        25,
		FlushInterval:    30 * time.Second,
		MinHistoryMonths: 12,
		RetryAttempts:    3,
		RetryBackoff:     30 * time.Second,
	}
}

// RunStatus represents the current state of a fit run
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// JobStatus represents the state of a single store fit job
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobSkipped    JobStatus = "skipped"
	JobFailed     JobStatus = "failed"
)

// Run triggers recorded on fit_runs.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerBoot      = "boot"
)

// FitRun tracks a single batch execution over the store estate
type FitRun struct {
	ID            int64
	Trigger       string
	Fitter        string
	Status        RunStatus
	TotalStores   int
	FittedStores  int
	SkippedStores int
	FailedStores  int
	StartedAt     time.Time
	CompletedAt   *time.Time
	ErrorMessage  string
}

// FitJob tracks the fitting of a single store
type FitJob struct {
	ID           int64
	FitRunID     int64
	StoreID      int64
	StoreName    string
	Months       int
	Status       JobStatus
	ErrorMessage string
	ProcessedAt  *time.Time
	RetryCount   int
}

// RunStats holds aggregate fit-run metrics for monitoring
type RunStats struct {
	TotalRuns     int64
	CompletedRuns int64
	FailedRuns    int64
	StoresFitted  int64
	LastRunAt     *time.Time
}
