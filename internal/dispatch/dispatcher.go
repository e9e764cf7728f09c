// Package dispatch drives queued notification records to a terminal status.
// It is the system's state machine driver: a fixed-interval loop that scans
// the store for queued records, resolves a sender per record, and persists
// the outcome. Delivery is at-least-once; a record whose terminal state
// could not be persisted stays queued and is retried on a later cycle.
package dispatch

import (
	"context"
	"time"

	"notification-service/internal/archive"
	"notification-service/internal/channel"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/common/observability"
	"notification-service/internal/models"
	"notification-service/internal/store"
)

// Config holds the dispatch loop settings.
type Config struct {
	// Interval between cycle starts.
	Interval time.Duration
	// BatchSize bounds the number of queued records processed per cycle.
	BatchSize int
	// AttemptTimeout bounds one channel delivery attempt. A timed-out
	// attempt counts as a delivery error.
	AttemptTimeout time.Duration
}

// Dispatcher owns the background delivery loop.
type Dispatcher struct {
	cfg      Config
	store    store.Store
	registry *channel.Registry
	archiver *archive.Archiver
	obs      *observability.Observability
	log      logger.Logger
}

func New(cfg Config, st store.Store, reg *channel.Registry, arch *archive.Archiver, obs *observability.Observability, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		store:    st,
		registry: reg,
		archiver: arch,
		obs:      obs,
		log:      log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Run executes dispatch cycles until ctx is cancelled. Cycles never
// overlap: runCycle is called synchronously from the select loop, so a
// slow cycle delays the next tick instead of racing it. The in-flight
// record attempt finishes before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("dispatcher started", map[string]interface{}{
		"interval":  d.cfg.Interval.String(),
		"batchSize": d.cfg.BatchSize,
	})

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped", nil)
			return
		case <-ticker.C:
			d.runCycle(ctx)
		}
	}
}

// RunOnce executes a single dispatch cycle. Run drives the same cycle on a
// ticker; this is the entry point for tests and one-shot invocations.
func (d *Dispatcher) RunOnce(ctx context.Context) {
	d.runCycle(ctx)
}

// runCycle scans one batch of queued records and processes them
// sequentially. A scan failure skips the whole cycle; the loop itself is
// never terminated by a transient error.
func (d *Dispatcher) runCycle(ctx context.Context) {
	start := time.Now()

	batch, err := d.store.FindByStatus(ctx, models.StatusQueued, d.cfg.BatchSize)
	if err != nil {
		d.log.Error("queued scan failed, skipping cycle", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, n := range batch {
		d.process(ctx, n)
	}

	if d.obs != nil {
		d.obs.RecordCycle(ctx, time.Since(start), len(batch))
	}
	if len(batch) > 0 {
		d.log.Debug("dispatch cycle complete", map[string]interface{}{
			"processed": len(batch),
			"duration":  time.Since(start).String(),
		})
	}
}

// process drives one record through a single delivery attempt. Nothing in
// here may escape: one record's failure must never abort the rest of the
// batch.
func (d *Dispatcher) process(ctx context.Context, n *models.Notification) {
	sender, err := d.registry.Sender(n.Channel)
	if err != nil {
		// Deployment defect: a queued record references a channel with no
		// registered sender.
		d.log.Error("unsupported channel, failing notification", map[string]interface{}{
			"notificationId": n.ID,
			"channel":        n.Channel,
		})
		d.markFailed(ctx, n, true)
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	ok, err := sender.Attempt(attemptCtx, n)
	cancel()

	switch {
	case err != nil:
		d.log.WithError(err).Error("notification delivery error", map[string]interface{}{
			"notificationId": n.ID,
			"channel":        n.Channel,
			"recipient":      n.Recipient,
		})
		d.markFailed(ctx, n, true)
	case ok:
		d.markSent(ctx, n)
	default:
		d.log.Error("notification rejected by provider", map[string]interface{}{
			"notificationId": n.ID,
			"channel":        n.Channel,
			"recipient":      n.Recipient,
		})
		d.markFailed(ctx, n, false)
	}
}

func (d *Dispatcher) markSent(ctx context.Context, n *models.Notification) {
	n.Status = models.StatusSent
	if err := d.store.Save(ctx, n); err != nil {
		// The record is still queued in the store and will be retried:
		// duplicate delivery is accepted over lost delivery.
		d.log.WithError(err).Error("failed to persist sent status", map[string]interface{}{
			"notificationId": n.ID,
		})
		return
	}

	metrics.NotificationsSent.WithLabelValues(string(n.Channel)).Inc()
	if d.obs != nil {
		d.obs.RecordAttempt(ctx, string(models.StatusSent))
	}
	d.log.Info("notification sent", map[string]interface{}{
		"notificationId": n.ID,
		"channel":        n.Channel,
		"recipient":      n.Recipient,
	})
	d.archiveTerminal(ctx, n)
}

// markFailed persists the failed transition. When the failure came from a
// delivery error the persist is best-effort: if it also fails, the record
// stays queued and the next cycle retries it.
func (d *Dispatcher) markFailed(ctx context.Context, n *models.Notification, fromError bool) {
	n.Status = models.StatusFailed
	if err := d.store.Save(ctx, n); err != nil {
		d.log.WithError(err).Error("failed to persist failed status", map[string]interface{}{
			"notificationId": n.ID,
		})
		if !fromError {
			return
		}
	}

	metrics.NotificationsFailed.WithLabelValues(string(n.Channel)).Inc()
	if d.obs != nil {
		d.obs.RecordAttempt(ctx, string(models.StatusFailed))
	}
	d.archiveTerminal(ctx, n)
}

func (d *Dispatcher) archiveTerminal(ctx context.Context, n *models.Notification) {
	if d.archiver == nil {
		return
	}
	if err := d.archiver.Index(ctx, n); err != nil {
		d.log.Warn("archive index failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
	}
}
