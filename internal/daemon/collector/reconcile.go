package collector

import (
	"context"
	"time"

	"github.com/dairui1/vibetunnel/internal/daemon/store"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/sirupsen/logrus"
)

// ReconcileCollector periodically demotes dead sessions and publishes the
// full session list.
type ReconcileCollector struct {
	mgr      *sessions.Manager
	interval time.Duration
	logger   *logrus.Entry
}

// NewReconcileCollector creates a ReconcileCollector polling every interval.
func NewReconcileCollector(mgr *sessions.Manager, interval time.Duration, logger *logrus.Entry) *ReconcileCollector {
	if interval <= 0 {
		interval = time.Second
	}
	return &ReconcileCollector{mgr: mgr, interval: interval, logger: logger}
}

// Name returns the collector's name.
func (c *ReconcileCollector) Name() string { return "reconcile" }

// Run starts the reconcile loop.
func (c *ReconcileCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	scan := func() {
		demoted, err := c.mgr.ReconcileAll()
		if err != nil {
			c.logger.WithError(err).Warn("Reconcile pass failed")
			return
		}
		if len(demoted) > 0 {
			c.logger.WithField("sessions", demoted).Info("Demoted dead sessions")
		}
		publish(ctx, c.mgr, c.Name(), updates, c.logger)
	}

	scan()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			scan()
		}
	}
}

// publish lists the control root and sends the result as one update.
func publish(ctx context.Context, mgr *sessions.Manager, source string, updates chan<- store.Update, logger *logrus.Entry) {
	list, err := mgr.List()
	if err != nil {
		logger.WithError(err).Warn("Failed to list sessions")
		return
	}

	select {
	case updates <- store.Update{
		Type:    store.UpdateSessions,
		Source:  source,
		Scanned: len(list),
		Payload: list,
	}:
	case <-ctx.Done():
	}
}
