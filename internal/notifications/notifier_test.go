package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"estatehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNotifier(t *testing.T) (*Notifier, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb), rdb
}

type eventSink struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (s *eventSink) add(e models.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) snapshot() []models.ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChangeEvent(nil), s.events...)
}

func TestChangeChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "changes:properties", ChangeChannel(models.ListingsTable))
}

func TestNotifier_NilRedis(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishChange(context.Background(), models.ChangeEvent{Table: "properties"}))

	_, err := n.SubscribeChanges(context.Background(), func(models.ChangeEvent) {})
	assert.Error(t, err)
}

func TestNotifier_PublishSubscribe(t *testing.T) {
	n, _ := setupNotifier(t)
	sink := &eventSink{}

	sub, err := n.SubscribeChanges(context.Background(), sink.add)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	want := models.ChangeEvent{Table: models.ListingsTable, Kind: models.ChangeUpdate, ID: "abc"}
	require.NoError(t, n.PublishChange(context.Background(), want))

	assert.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, want, sink.snapshot()[0])
}

func TestNotifier_MalformedPayloadIgnored(t *testing.T) {
	n, rdb := setupNotifier(t)
	sink := &eventSink{}

	sub, err := n.SubscribeChanges(context.Background(), sink.add)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	require.NoError(t, rdb.Publish(context.Background(), ChangeChannel("properties"), "not-json").Err())
	require.NoError(t, n.PublishChange(context.Background(), models.ChangeEvent{Table: "properties", Kind: models.ChangeDelete}))

	assert.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.ChangeDelete, sink.snapshot()[0].Kind)
}

func TestNotifier_CloseStopsDelivery(t *testing.T) {
	n, _ := setupNotifier(t)
	sink := &eventSink{}

	sub, err := n.SubscribeChanges(context.Background(), sink.add)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	// Closing twice is harmless.
	require.NoError(t, sub.Close())

	s, ok := sub.(*Subscription)
	require.True(t, ok)
	select {
	case <-s.Done():
	default:
		t.Fatal("listener goroutine still running after Close")
	}

	require.NoError(t, n.PublishChange(context.Background(), models.ChangeEvent{Table: "properties"}))
	assert.Never(t, func() bool {
		return len(sink.snapshot()) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_ContextCancelStopsListener(t *testing.T) {
	n, _ := setupNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := n.SubscribeChanges(ctx, func(models.ChangeEvent) {})
	require.NoError(t, err)
	cancel()

	s := sub.(*Subscription)
	assert.Eventually(t, func() bool {
		select {
		case <-s.Done():
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNotifier_HandlerPanicIsContained(t *testing.T) {
	n, _ := setupNotifier(t)
	sink := &eventSink{}
	first := true

	sub, err := n.SubscribeChanges(context.Background(), func(e models.ChangeEvent) {
		if first {
			first = false
			panic("boom")
		}
		sink.add(e)
	})
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	ctx := context.Background()
	require.NoError(t, n.PublishChange(ctx, models.ChangeEvent{Table: "properties", ID: "1"}))
	require.NoError(t, n.PublishChange(ctx, models.ChangeEvent{Table: "properties", ID: "2"}))

	assert.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "2", sink.snapshot()[0].ID)
}
