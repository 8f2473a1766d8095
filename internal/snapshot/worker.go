package snapshot

import (
	"sync"
	"time"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/logging"
)

// Worker periodically snapshots the registry in the background
type Worker struct {
	store    *Store
	registry *baseline.Registry
	interval time.Duration
	logger   *logging.Logger

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a snapshot worker
func NewWorker(store *Store, registry *baseline.Registry, interval time.Duration, logger *logging.Logger) *Worker {
	return &Worker{
		store:    store,
		registry: registry,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background snapshot loop
func (w *Worker) Start() {
	go w.run()
	w.logger.Info("Snapshot worker started", "interval", w.interval)
}

// Stop halts the loop and takes a final snapshot
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh

		if _, err := w.store.Save(w.registry); err != nil {
			w.logger.Error("Final snapshot failed", "error", err)
		}
	})
}

func (w *Worker) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.store.Save(w.registry); err != nil {
				w.logger.Error("Periodic snapshot failed", "error", err)
			}
		case <-w.stopCh:
			return
		}
	}
}
