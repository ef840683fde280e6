package auth

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// Sweeper periodically purges expired sessions on a cron schedule.
type Sweeper struct {
	svc      *Service
	cron     *cron.Cron
	schedule string
	log      *logger.Logger
}

// NewSweeper builds a sweeper. An empty schedule defaults to hourly.
func NewSweeper(svc *Service, schedule string, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("session-sweeper")
	}
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Sweeper{svc: svc, cron: cron.New(), schedule: schedule, log: log}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.svc.SweepExpired(context.Background()); err != nil {
			s.log.WithError(err).Warn("session sweep failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("session sweeper started")
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
