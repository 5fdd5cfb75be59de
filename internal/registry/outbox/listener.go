package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Listen subscribes to a Postgres NOTIFY channel and returns a channel that
// receives a wakeup for each notification. Wakeups coalesce when the relay
// is busy. The listener closes when ctx is done.
func Listen(ctx context.Context, databaseURL, channel string, logger *slog.Logger) (<-chan struct{}, error) {
	listener := pq.NewListener(databaseURL, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.WarnContext(ctx, "outbox listener event", "event", int(ev), "error", err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer func() { _ = listener.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				// nil notifications follow a reconnect; wake anyway to catch up
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()
	return wake, nil
}
