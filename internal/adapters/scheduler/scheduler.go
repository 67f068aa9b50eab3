// Package scheduler runs the sync pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"localbiz/internal/app"
	"localbiz/internal/domain"
)

// Runner is the part of app.SyncService the scheduler needs.
type Runner interface {
	Run(ctx context.Context, trigger string) (app.Report, error)
}

type Scheduler struct {
	c       *cron.Cron
	run     Runner
	timeout time.Duration
}

// New parses schedule (standard five-field cron, server-local time) and
// registers the sync job. timeout <= 0 means no per-run deadline.
func New(schedule string, r Runner, timeout time.Duration) (*Scheduler, error) {
	l := cronLogger{l: log.With().Str("component", "scheduler").Logger()}
	c := cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l)),
	)
	s := &Scheduler{c: c, run: r, timeout: timeout}
	if _, err := c.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.c.Start()
	for _, e := range s.c.Entries() {
		log.Info().Time("next", e.Next).Msg("sync scheduled")
	}
}

// Stop prevents new runs and waits for a running one, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runOnce never propagates an error; a failed run is reported in logs and metrics.
func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rep, err := s.run.Run(ctx, app.TriggerScheduled)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		log.Warn().Msg("scheduled sync skipped: another run in progress")
	case err != nil:
		log.Error().Err(err).Str("run_id", rep.RunID).Interface("report", rep.Categories).Msg("scheduled sync failed")
	default:
		log.Info().Str("run_id", rep.RunID).Int("businesses", rep.Businesses()).Msg("scheduled sync ok")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error().Err(err).Fields(kv).Msg(msg)
}
