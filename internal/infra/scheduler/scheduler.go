package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"student_outreach_engine/internal/app"
)

// TickScheduler drives the engine at a fixed interval. Overlap protection
// lives inside the engine itself so manual operator triggers observe the
// same guard.
type TickScheduler struct {
	cronEngine *cron.Cron
	engine     *app.Engine
	interval   time.Duration
	logger     *logrus.Logger
}

func NewTickScheduler(engine *app.Engine, interval time.Duration, loc *time.Location, logger *logrus.Logger) *TickScheduler {
	return &TickScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		engine:     engine,
		interval:   interval,
		logger:     logger,
	}
}

// Start registers the periodic tick job and starts the cron engine.
func (s *TickScheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cronEngine.AddFunc(spec, func() {
		// Budget the whole pipeline to one interval so a stuck tick cannot
		// outlive its slot indefinitely.
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()

		if _, err := s.engine.RunTick(ctx); err != nil {
			if err == app.ErrTickInProgress {
				s.logger.Warn("previous tick still running; this interval is skipped")
				return
			}
			s.logger.WithError(err).Error("scheduler tick failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not register tick job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("interval", s.interval.String()).Info("tick scheduler started")
	return nil
}

// Stop halts the cron engine and waits for a running tick to drain.
func (s *TickScheduler) Stop() {
	s.logger.Info("stopping tick scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("tick scheduler stopped")
}
