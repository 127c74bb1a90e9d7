package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"estatehub/internal/models"

	"github.com/redis/go-redis/v9"
)

// ChangeChannelPrefix prefixes the per-table Redis change channels.
const ChangeChannelPrefix = "changes:"

// ChangeChannel returns the Redis channel change events for table are published on.
func ChangeChannel(table string) string {
	return ChangeChannelPrefix + table
}

// Notifier publishes and subscribes to row change events over Redis pub/sub.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishChange announces a row change. Without Redis it is a no-op.
func (n *Notifier) PublishChange(ctx context.Context, event models.ChangeEvent) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return n.rdb.Publish(ctx, ChangeChannel(event.Table), payload).Err()
}

// SubscribeChanges calls onChange for every change event on any table until the
// returned subscription is closed or ctx ends. The subscription is confirmed by
// Redis before SubscribeChanges returns.
func (n *Notifier) SubscribeChanges(ctx context.Context, onChange func(models.ChangeEvent)) (io.Closer, error) {
	if n.rdb == nil {
		return nil, fmt.Errorf("redis change feed: client is not configured")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := n.rdb.PSubscribe(subCtx, ChangeChannelPrefix+"*")
	if _, err := sub.Receive(subCtx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, fmt.Errorf("redis change feed: subscribe: %w", err)
	}
	ch := sub.Channel()

	s := newSubscription(cancel)
	go func() {
		defer close(s.done)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				dispatch(subCtx, "redis", msg.Payload, onChange)
			}
		}
	}()

	return s, nil
}
