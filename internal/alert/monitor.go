package alert

import (
	"context"
	"time"

	"factory-status-backend/internal/logger"
	"factory-status-backend/internal/supplychain"
)

// StatusSource evaluates today's production.
type StatusSource interface {
	CurrentStatus(ctx context.Context) (supplychain.Status, error)
}

// Monitor periodically evaluates today's status and raises an alert when the
// day goes from on track to off track. The first evaluation of each day only
// records a baseline.
type Monitor struct {
	status   StatusSource
	pool     *WorkerPool
	interval time.Duration
	log      *logger.Logger

	date    string
	onTrack bool
	seen    bool
}

// NewMonitor creates a Monitor that checks every interval.
func NewMonitor(status StatusSource, pool *WorkerPool, interval time.Duration, log *logger.Logger) *Monitor {
	return &Monitor{status: status, pool: pool, interval: interval, log: log}
}

// Run starts the worker pool and checks in a loop until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info("starting off-track monitor", "interval", m.interval.String())
	m.pool.Start(ctx)

	m.Check(ctx)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("off-track monitor shutting down")
			return
		case <-timer.C:
			m.Check(ctx)
			timer.Reset(m.interval)
		}
	}
}

// Check evaluates the current status once and reports whether an alert was dispatched.
func (m *Monitor) Check(ctx context.Context) bool {
	status, err := m.status.CurrentStatus(ctx)
	if err != nil {
		m.log.Error("failed to evaluate supply-chain status", "error", err)
		return false
	}

	flipped := m.seen && m.date == status.Date && m.onTrack && !status.OnTrack
	m.date, m.onTrack, m.seen = status.Date, status.OnTrack, true

	if !flipped {
		return false
	}
	m.log.Warn("production went off track",
		"date", status.Date,
		"projected", status.ProjectedEndOfDayOutput,
		"target", status.DailyTarget)
	return m.pool.Dispatch(ctx, Alert{
		Date:      status.Date,
		Projected: status.ProjectedEndOfDayOutput,
		Target:    status.DailyTarget,
	})
}
