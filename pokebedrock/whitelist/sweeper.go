package whitelist

import (
	"context"
	"log/slog"
	"time"

	"github.com/df-mc/atomic"
)

// Sweeper runs a sweep periodically and remembers the last report.
type Sweeper struct {
	log      *slog.Logger
	gate     *Gate
	interval time.Duration

	last    atomic.Value[Report]
	lastRun atomic.Value[time.Time]
}

// NewSweeper creates a sweeper for gate. An interval of zero or less disables
// the periodic sweep; SweepOnce keeps working.
func NewSweeper(log *slog.Logger, gate *Gate, interval time.Duration) *Sweeper {
	return &Sweeper{log: log, gate: gate, interval: interval}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Debug("Periodic whitelist sweep disabled")
		return nil
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if !s.gate.Config().Enabled {
				continue
			}
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep with the gate's current configuration.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	report, err := s.gate.Sweep(ctx, s.gate.Config())
	if err != nil {
		s.log.Error("Whitelist sweep failed", "error", err)
		return report, err
	}
	s.last.Store(report)
	s.lastRun.Store(report.Finished)
	return report, nil
}

// Last returns the report of the last completed sweep.
func (s *Sweeper) Last() (Report, bool) {
	if s.lastRun.Load().IsZero() {
		return Report{}, false
	}
	return s.last.Load(), true
}
