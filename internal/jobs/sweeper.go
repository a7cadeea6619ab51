package jobs

import (
	"context"
	"time"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/services"
	"github.com/glowplan/selfcare-backend/internal/utils"
)

// Sweeper drives the reminder sweep on a fixed interval. One sweep at a time;
// a sweep that overruns the interval delays the next tick rather than
// overlapping it.
type Sweeper struct {
	log      *logger.Logger
	reminder services.ReminderService
	interval time.Duration
}

func NewSweeper(baseLog *logger.Logger, reminder services.ReminderService) *Sweeper {
	log := baseLog.With("component", "Sweeper")
	intervalMin := utils.GetEnvAsInt("SWEEP_INTERVAL_MINUTES", 5, baseLog)
	if intervalMin < 1 {
		intervalMin = 1
	}
	return &Sweeper{
		log:      log,
		reminder: reminder,
		interval: time.Duration(intervalMin) * time.Minute,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("Starting reminder sweeper", "interval", s.interval.String())
	go s.runLoop(ctx)
}

func (s *Sweeper) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sweeper loop stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Sweep panic", "panic", r)
		}
	}()

	started := time.Now()
	if err := s.reminder.Sweep(ctx); err != nil {
		s.log.Error("Sweep failed", "error", err, "elapsed", time.Since(started).String())
		return
	}
	s.log.Debug("Sweep finished", "elapsed", time.Since(started).String())
}
