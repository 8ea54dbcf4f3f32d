package workers

import (
	"context"
	"time"

	"rescuenet/services"

	"github.com/sirupsen/logrus"
)

// StatsWorker periodically recomputes the alert aggregate and keeps the
// dashboard summary cache warm.
type StatsWorker struct {
	alertService *services.AlertService
	period       time.Duration
	cacheTTL     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStatsWorker(alertService *services.AlertService, period, cacheTTL time.Duration) *StatsWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &StatsWorker{
		alertService: alertService,
		period:       period,
		cacheTTL:     cacheTTL,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

func (w *StatsWorker) Start() {
	logrus.Infof("Stats worker starting (period: %s)", w.period)

	go w.run()
}

func (w *StatsWorker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	// Warm the cache immediately instead of waiting a full period.
	w.refresh()

	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-w.ctx.Done():
			logrus.Info("Stats worker stopped")
			return
		}
	}
}

func (w *StatsWorker) refresh() {
	ctx, cancel := context.WithTimeout(w.ctx, 10*time.Second)
	defer cancel()

	stats, err := w.alertService.ComputeStats(ctx)
	if err != nil {
		logrus.Errorf("Stats worker: failed to compute stats: %v", err)
		return
	}

	if err := w.alertService.CacheStats(ctx, stats, w.cacheTTL); err != nil {
		logrus.Warnf("Stats worker: failed to cache stats: %v", err)
	}
}

// Stop shuts the worker down and waits for the loop to exit.
func (w *StatsWorker) Stop() {
	w.cancel()
	<-w.done
}
