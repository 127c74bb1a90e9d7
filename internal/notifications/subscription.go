// Package notifications delivers catalog change notifications between processes
// and to connected websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"sync"

	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/observability"
)

// Subscription is a running change listener. Close stops it and blocks until
// its goroutine has released every resource it holds.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSubscription(cancel context.CancelFunc) *Subscription {
	return &Subscription{cancel: cancel, done: make(chan struct{})}
}

// Close is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// Done is closed once the listener goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// dispatch decodes a change payload and hands it to onChange, isolating panics.
func dispatch(ctx context.Context, source, payload string, onChange func(models.ChangeEvent)) {
	var event models.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		middleware.Logger.WarnContext(ctx, "dropping malformed change notification",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.ChangeEventsReceived.WithLabelValues(event.Table, string(event.Kind)).Inc()

	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.ErrorContext(ctx, "panic in change handler",
				slog.String("source", source),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	onChange(event)
}
