package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor deletes stored objects older than a retention window on a cron
// schedule. Schedules use the standard 5-field format.
type Janitor struct {
	cron      *cron.Cron
	store     Store
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
	onSweep   func(removed int)
}

// NewJanitor registers a sweep of store on schedule. onSweep, if set, is
// called with the number of removed objects after each successful sweep.
func NewJanitor(store Store, schedule string, retention time.Duration, log *slog.Logger, onSweep func(int)) (*Janitor, error) {
	if log == nil {
		log = slog.Default()
	}
	j := &Janitor{
		cron:      cron.New(),
		store:     store,
		retention: retention,
		log:       log,
		now:       time.Now,
		onSweep:   onSweep,
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("registering retention schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := j.Sweep(ctx); err != nil {
		j.log.Error("retention sweep failed", "error", err)
	}
}

// Sweep runs one retention pass immediately.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.store.Sweep(ctx, cutoff)
	if err != nil {
		return n, err
	}
	j.log.Info("retention sweep complete", "removed", n, "cutoff", cutoff)
	if j.onSweep != nil {
		j.onSweep(n)
	}
	return n, nil
}

// Start begins executing the schedule.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to complete.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
