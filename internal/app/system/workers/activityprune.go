// internal/app/system/workers/activityprune.go

// Package workers holds long-running background loops started by the
// bootstrap and stopped on shutdown.
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/store/activity"
	"github.com/jcsgo/shepherd/internal/app/system/timeouts"
)

// ActivityPrune periodically removes activity log entries older than the
// retention window.
type ActivityPrune struct {
	activities *activity.Store
	log        *zap.Logger
	interval   time.Duration
	retention  time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewActivityPrune creates a prune worker. interval is how often to run;
// retention is how old an entry must be before it is removed.
func NewActivityPrune(activities *activity.Store, logger *zap.Logger, interval, retention time.Duration) *ActivityPrune {
	return &ActivityPrune{
		activities: activities,
		log:        logger,
		interval:   interval,
		retention:  retention,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background prune loop.
func (w *ActivityPrune) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("activity prune worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ActivityPrune) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("activity prune worker stopped")
}

func (w *ActivityPrune) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

func (w *ActivityPrune) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	cutoff := time.Now().UTC().Add(-w.retention)
	count, err := w.activities.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error("prune activity log", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("pruned activity log entries", zap.Int64("count", count))
	}
}
