package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
	"github.com/robfig/cron/v3"
)

type sweepRunner interface {
	Sweep(ctx context.Context) (SweepStats, error)
}

// Sweeper runs the session sweep on a fixed interval.
type Sweeper struct {
	target   sweepRunner
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(target sweepRunner, interval time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if interval < time.Second {
		interval = time.Second
	}
	return &Sweeper{target: target, interval: interval, log: log}
}

// Run schedules the sweep and blocks until ctx is done. A sweep still running
// at that point is waited for.
func (s *Sweeper) Run(ctx context.Context) error {
	const op = "service.sweeper.run"
	log := s.log.With(slog.String("op", op), slog.Duration("interval", s.interval))

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		if _, err := s.target.Sweep(ctx); err != nil && ctx.Err() == nil {
			log.Error("sweep failed", sl.Err(err))
		}
	}))

	c.Start()
	log.Info("sweeper started")

	<-ctx.Done()
	<-c.Stop().Done()

	log.Info("sweeper stopped")
	return nil
}
