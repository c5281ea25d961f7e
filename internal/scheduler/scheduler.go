// backend-go/internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/glowmart/storesight/backend-go/internal/config"
)

// RefitFunc runs one full re-fit of the chain.
type RefitFunc func(ctx context.Context) error

// Scheduler owns the cron loop behind the nightly re-fit. Specs use the
// six-field form with a seconds column.
type Scheduler struct {
	cron  *cron.Cron
	cfg   config.SchedulerConfig
	refit RefitFunc
}

func New(cfg config.SchedulerConfig, refit RefitFunc) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		cfg:   cfg,
		refit: refit,
	}
}

// Start registers the re-fit entry and launches the loop. A disabled
// scheduler is a no-op; RefitOnBoot fires one re-fit in the background right
// away, so a fresh deployment serves forecasts without waiting for the
// nightly slot.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		log.Info().Msg("scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.RefitSpec, func() { s.runRefit(ctx) }); err != nil {
		return fmt.Errorf("failed to register refit schedule %q: %w", s.cfg.RefitSpec, err)
	}

	s.cron.Start()
	log.Info().Str("spec", s.cfg.RefitSpec).Bool("refit_on_boot", s.cfg.RefitOnBoot).
		Msg("scheduler started")

	if s.cfg.RefitOnBoot {
		go s.runRefit(ctx)
	}
	return nil
}

// Stop halts the loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRefit(ctx context.Context) {
	start := time.Now()
	log.Info().Msg("scheduler: refit starting")

	if err := s.refit(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: refit failed")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("scheduler: refit completed")
}
