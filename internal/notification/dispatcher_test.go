package notification

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// channelPublisher records publishes on a channel
type channelPublisher struct {
	published chan shared.EmailMessage
	err       error
}

func (p *channelPublisher) Publish(_ context.Context, _ string, payload interface{}) error {
	p.published <- payload.(shared.EmailMessage)
	return p.err
}

func (p *channelPublisher) Close() error { return nil }

func newDispatcherForTest(t *testing.T, publisher *channelPublisher) *Dispatcher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d, err := NewDispatcher(publisher, PoolConfig{Size: 2}, logger)
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)
	return d
}

func TestDispatcher_Send(t *testing.T) {
	t.Run("PublishesAsynchronously", func(t *testing.T) {
		publisher := &channelPublisher{published: make(chan shared.EmailMessage, 1)}
		d := newDispatcherForTest(t, publisher)

		msg := shared.EmailMessage{
			Recipient: "buyer@example.com",
			Kind:      shared.EmailOrderConfirmed,
			Data:      map[string]any{"order_id": "o-1"},
		}
		d.Send(msg)

		select {
		case got := <-publisher.published:
			assert.Equal(t, msg.Recipient, got.Recipient)
			assert.Equal(t, msg.Kind, got.Kind)
		case <-time.After(2 * time.Second):
			t.Fatal("message was never published")
		}
	})

	t.Run("PublishFailureNeverSurfaces", func(t *testing.T) {
		publisher := &channelPublisher{published: make(chan shared.EmailMessage, 1), err: errors.New("broker down")}
		d := newDispatcherForTest(t, publisher)

		// Send has no error return; the loss is logged and accepted
		d.Send(shared.EmailMessage{Recipient: "buyer@example.com", Kind: shared.EmailOrderShipped})

		select {
		case <-publisher.published:
		case <-time.After(2 * time.Second):
			t.Fatal("publish was never attempted")
		}
	})
}
