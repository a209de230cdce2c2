package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sweeper periodically evicts finished jobs past their retention window.
type Sweeper struct {
	cron      *cron.Cron
	reg       Registry
	spec      string
	retention time.Duration
}

// NewSweeper creates a Sweeper firing on spec (e.g. "@every 1m").
func NewSweeper(reg Registry, spec string, retention time.Duration) *Sweeper {
	return &Sweeper{
		cron:      cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		reg:       reg,
		spec:      spec,
		retention: retention,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return eris.Wrapf(err, "jobs: schedule sweep %q", s.spec)
	}
	s.cron.Start()
	zap.L().Info("jobs: sweeper started",
		zap.String("spec", s.spec),
		zap.Duration("retention", s.retention),
	)
	return nil
}

// Stop halts the scheduler and waits for a running sweep or ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) sweep() {
	s.reg.Sweep(s.retention)
}
