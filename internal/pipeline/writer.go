// backend-go/internal/pipeline/writer.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

// FlushFunc persists a batch of fitted models.
type FlushFunc func(ctx context.Context, models []*domain.StoreModel) error

// ModelWriter buffers fitted models and flushes them to the database in
// batches, so a run over the whole estate does not open a transaction per
// store
type ModelWriter struct {
	config    Config
	buffer    []*domain.StoreModel
	flushed   int
	mu        sync.Mutex
	flushFn   FlushFunc
	lastFlush time.Time
}

// NewModelWriter creates a new buffered model writer
func NewModelWriter(config Config, flushFn FlushFunc) *ModelWriter {
	return &ModelWriter{
		config:    config,
		buffer:    make([]*domain.StoreModel, 0, config.BatchSize),
		flushFn:   flushFn,
		lastFlush: time.Now(),
	}
}

// Add buffers one fitted model and flushes when the batch is full or the
// flush interval has passed
func (w *ModelWriter) Add(ctx context.Context, model *domain.StoreModel) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = append(w.buffer, model)

	log.Debug().
		Int64("store_id", model.StoreID).
		Int("buffered", len(w.buffer)).
		Msg("model buffered")

	shouldFlush := len(w.buffer) >= w.config.BatchSize ||
		time.Since(w.lastFlush) >= w.config.FlushInterval

	if shouldFlush {
		return w.flushLocked(ctx)
	}

	return nil
}

// Finalize flushes any remaining buffered models
func (w *ModelWriter) Finalize(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buffer) == 0 {
		return nil
	}

	return w.flushLocked(ctx)
}

// flushLocked hands the current buffer to the flush function.
// Must be called with w.mu locked
func (w *ModelWriter) flushLocked(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}

	batch := make([]*domain.StoreModel, len(w.buffer))
	copy(batch, w.buffer)

	if err := w.flushFn(ctx, batch); err != nil {
		return fmt.Errorf("failed to flush %d models: %w", len(batch), err)
	}

	log.Info().Int("models", len(batch)).Msg("flushed fitted models")

	w.flushed += len(batch)
	w.buffer = w.buffer[:0]
	w.lastFlush = time.Now()

	return nil
}

// Stats returns the current buffer depth and the total models flushed so far
func (w *ModelWriter) Stats() (buffered, flushed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer), w.flushed
}
