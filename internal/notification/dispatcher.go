// Package notification carries the fire-and-forget email pipeline. Requests
// are handed to a worker pool, published to Kafka and picked up by the worker
// binary; delivery is at-most-once and never blocks or fails a core mutation.
package notification

import (
	"context"
	"log/slog"

	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/platform/messaging/producers"
	"github.com/panjf2000/ants/v2"
)

// Dispatcher publishes email notification requests without waiting on the
// broker. Send returns immediately; publish errors are logged and dropped.
type Dispatcher struct {
	publisher producers.MessagePublisher
	pool      *ants.Pool
	logger    *slog.Logger
}

type PoolConfig struct {
	Size int
}

func NewDispatcher(publisher producers.MessagePublisher, cfg PoolConfig, logger *slog.Logger) (*Dispatcher, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		publisher: publisher,
		pool:      pool,
		logger:    logger,
	}, nil
}

// Send submits the message for asynchronous publishing. It never blocks the
// caller and never returns a delivery outcome; a pool or publish failure is
// logged and the message is lost, which the delivery contract allows.
func (d *Dispatcher) Send(msg shared.EmailMessage) {
	// Copy to avoid sharing the caller's message across goroutines
	msgCopy := msg

	err := d.pool.Submit(func() {
		// Detached from the request context: the HTTP response must not
		// wait on the broker, and a cancelled request must not cancel
		// an already-accepted notification
		if err := d.publisher.Publish(context.Background(), msgCopy.Recipient, msgCopy); err != nil {
			d.logger.Error("Failed to publish notification",
				"kind", string(msgCopy.Kind),
				"recipient", msgCopy.Recipient,
				"error", err,
			)
		}
	})
	if err != nil {
		d.logger.Error("Failed to submit notification to worker pool",
			"kind", string(msg.Kind),
			"recipient", msg.Recipient,
			"error", err,
		)
	}
}

// Running returns the number of running workers in the pool
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Shutdown gracefully shuts down the worker pool
func (d *Dispatcher) Shutdown() {
	d.logger.Info("Shutting down notification dispatcher", "running_workers", d.pool.Running())
	d.pool.Release()
}
