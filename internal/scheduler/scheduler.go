// Package scheduler runs the periodic delivery sweep: scan the global
// scheduled index, load the capsules, and finalize those whose delivery time
// has arrived.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/capsule-api/internal/application/delivery"
	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/metrics"
	"github.com/robfig/cron/v3"
)

type scheduleIndex interface {
	IDs(ctx context.Context) ([]string, error)
}

type capsuleStore interface {
	MGet(ctx context.Context, capsuleIDs []string) ([]domain.Capsule, error)
}

type finalizer interface {
	Finalize(ctx context.Context, c *domain.Capsule) (*delivery.Result, error)
}

// Scheduler drives the delivery sweep on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	spec      string
	schedule  scheduleIndex
	capsules  capsuleStore
	finalizer finalizer
	m         *metrics.Metrics
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

func New(spec string, schedule scheduleIndex, capsules capsuleStore, fin finalizer, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		spec:      spec,
		schedule:  schedule,
		capsules:  capsules,
		finalizer: fin,
		m:         m,
		now:       time.Now,
	}
}

// Start registers the sweep with the cron runner and begins scheduling.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	entryID, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			slog.Warn("delivery sweep failed", "err", err)
		}
	})
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true
	slog.Info("delivery scheduler started", "spec", s.spec)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	slog.Info("delivery scheduler stopped")
}

// Sweep finalizes every scheduled capsule whose delivery time has passed.
// Returns the number of capsules delivered. A finalize failure for one
// capsule does not stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	start := s.now()
	defer func() {
		s.m.SweepDuration.Observe(s.now().Sub(start).Seconds())
	}()

	ids, err := s.schedule.IDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	capsules, err := s.capsules.MGet(ctx, ids)
	if err != nil {
		return 0, err
	}

	delivered := 0
	now := s.now()
	for i := range capsules {
		c := &capsules[i]
		if c.Status != domain.CapsuleStatusScheduled || c.DeliverAt.After(now) {
			continue
		}
		res, err := s.finalizer.Finalize(ctx, c)
		if err != nil {
			slog.Warn("failed to finalize capsule", "capsule_id", c.CapsuleID, "err", err)
			continue
		}
		delivered++
		for _, o := range res.Failed() {
			slog.Warn("delivery side effect failed", "capsule_id", c.CapsuleID, "step", o.Step, "err", o.Err)
		}
	}
	if delivered > 0 {
		slog.Info("delivery sweep complete", "scanned", len(ids), "delivered", delivered)
	}
	return delivered, nil
}
