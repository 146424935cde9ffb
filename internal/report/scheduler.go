// Package report schedules the automatic daily report.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds one scheduled delivery across all accounts.
const runTimeout = 5 * time.Minute

// Reporter delivers a report to the operator chat.
type Reporter interface {
	SendDailyReport(ctx context.Context)
}

// Scheduler fires the daily report at a fixed local hour.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler builds a scheduler firing every day at hour o'clock in loc.
func NewScheduler(hour int, loc *time.Location, rep Reporter, logger *slog.Logger) (*Scheduler, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("report hour %d out of range", hour)
	}
	log := logger.With("component", "report")

	c := cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("0 %d * * *", hour)
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		log.Info("sending scheduled daily report")
		rep.SendDailyReport(ctx)
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule report: %w", err)
	}

	return &Scheduler{cron: c, logger: log}, nil
}

// Start begins firing. Safe to call once.
func (s *Scheduler) Start() {
	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info("report scheduled", "next_run", s.cron.Entry(entries[0].ID).Next)
	}
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
