// backend-go/internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowmart/storesight/backend-go/internal/config"
)

func TestStart_DisabledSchedulerNeverFires(t *testing.T) {
	fired := false
	s := New(config.SchedulerConfig{Enabled: false, RefitOnBoot: true}, func(ctx context.Context) error {
		fired = true
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, fired)
}

func TestStart_RejectsInvalidSpec(t *testing.T) {
	s := New(config.SchedulerConfig{Enabled: true, RefitSpec: "every full moon"}, func(ctx context.Context) error {
		return nil
	})

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestStart_AcceptsSixFieldSpec(t *testing.T) {
	s := New(config.SchedulerConfig{Enabled: true, RefitSpec: "0 30 2 * * *"}, func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestRunRefit_SurvivesFailure(t *testing.T) {
	calls := 0
	s := New(config.SchedulerConfig{}, func(ctx context.Context) error {
		calls++
		return errors.New("fit exploded")
	})

	s.runRefit(context.Background())
	assert.Equal(t, 1, calls)
}
