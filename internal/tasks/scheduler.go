// Package tasks runs the service's background jobs on a cron schedule.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type SaleSweepStore interface {
	DeactivateExpiredSales(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron  *cron.Cron
	store SaleSweepStore
	log   *slog.Logger
}

func NewScheduler(store SaleSweepStore, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		store: store,
		log:   log,
	}
}

// Start registers the jobs and launches the cron loop. An expired
// time-boxed sale stays visible for at most an hour past its end date; the
// resolver's time-window query hides it immediately, the sweep just keeps
// the table tidy.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweepExpiredSales); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sweepExpiredSales() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.store.DeactivateExpiredSales(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("sale expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("deactivated expired sales", "count", n)
	}
}
