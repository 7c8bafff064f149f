package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// Sender delivers a rendered notification to its recipient
type Sender interface {
	Send(msg shared.EmailMessage) error
}

// Worker consumes notification messages and hands delivery to a pool of
// senders. A message that cannot be decoded or delivered is logged and
// dropped; the topic is at-most-once by contract.
type Worker struct {
	sender Sender
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorker(sender Sender, cfg PoolConfig, logger *slog.Logger) (*Worker, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &Worker{
		sender: sender,
		pool:   pool,
		logger: logger,
	}, nil
}

// HandleMessage decodes one queue message and submits it for delivery.
// A decode or submit failure is returned so the consumer can log the drop;
// a delivery failure inside the pool is only logged.
func (w *Worker) HandleMessage(_ context.Context, key []byte, value []byte) error {
	var msg shared.EmailMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("failed to decode notification message (key=%s): %w", string(key), err)
	}

	if err := w.pool.Submit(func() {
		if err := w.sender.Send(msg); err != nil {
			w.logger.Error("Failed to deliver notification",
				"kind", string(msg.Kind),
				"recipient", msg.Recipient,
				"error", err,
			)
		}
	}); err != nil {
		return fmt.Errorf("failed to submit notification to worker pool: %w", err)
	}

	return nil
}

// Running returns the number of running workers in the pool
func (w *Worker) Running() int {
	return w.pool.Running()
}

// Shutdown gracefully shuts down the worker pool
func (w *Worker) Shutdown() {
	w.logger.Info("Shutting down notification worker", "running_workers", w.pool.Running())
	w.pool.Release()
}
