// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// Sweeper is the job body: one inbox sweep pass.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Scheduler runs the inbox sweep on a cron spec.
type Scheduler struct {
	cron    *robfig.Cron
	sweeper Sweeper
	spec    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler creates a scheduler over a sweeper. spec uses the standard
// 5-field cron format.
func NewScheduler(sweeper Sweeper, spec string, logger *slog.Logger) *Scheduler {
	c := robfig.New(robfig.WithLogger(robfig.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		spec:    spec,
		timeout: 30 * time.Minute,
		logger:  logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("spec", s.spec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers a sweep outside the schedule.
func (s *Scheduler) RunNow() {
	go s.runSweep()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("starting inbox sweep")
	if err := s.sweeper.Sweep(ctx); err != nil {
		s.logger.Error("inbox sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("inbox sweep completed")
}
