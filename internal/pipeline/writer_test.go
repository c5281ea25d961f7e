// backend-go/internal/pipeline/writer_test.go
package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

func writerConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.FlushInterval = time.Hour
	return cfg
}

func TestModelWriter_FlushesFullBatches(t *testing.T) {
	var batches [][]*domain.StoreModel
	w := NewModelWriter(writerConfig(), func(_ context.Context, models []*domain.StoreModel) error {
		batches = append(batches, models)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, w.Add(ctx, &domain.StoreModel{StoreID: 1}))
	require.NoError(t, w.Add(ctx, &domain.StoreModel{StoreID: 2}))
	require.NoError(t, w.Add(ctx, &domain.StoreModel{StoreID: 3}))
	require.NoError(t, w.Finalize(ctx))

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, int64(1), batches[0][0].StoreID)
	assert.Equal(t, int64(3), batches[1][0].StoreID)

	buffered, flushed := w.Stats()
	assert.Equal(t, 0, buffered)
	assert.Equal(t, 3, flushed)
}

func TestModelWriter_PropagatesFlushFailure(t *testing.T) {
	errFlush := errors.New("connection reset")
	w := NewModelWriter(writerConfig(), func(_ context.Context, _ []*domain.StoreModel) error {
		return errFlush
	})

	ctx := context.Background()
	require.NoError(t, w.Add(ctx, &domain.StoreModel{StoreID: 1}))
	err := w.Add(ctx, &domain.StoreModel{StoreID: 2})

	assert.ErrorIs(t, err, errFlush)
}

func TestModelWriter_FinalizeWithEmptyBufferDoesNotFlush(t *testing.T) {
	calls := 0
	w := NewModelWriter(writerConfig(), func(_ context.Context, _ []*domain.StoreModel) error {
		calls++
		return nil
	})

	require.NoError(t, w.Finalize(context.Background()))

	assert.Equal(t, 0, calls)
}
