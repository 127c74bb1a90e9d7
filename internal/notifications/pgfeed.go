package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"estatehub/internal/middleware"
	"estatehub/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgReconnectDelay = 2 * time.Second

// PostgresFeed receives change events from a Postgres LISTEN channel fed by
// a row trigger on the listings table.
type PostgresFeed struct {
	pool    *pgxpool.Pool
	channel string
}

// NewPostgresFeed wraps an existing pool. The pool must not be nil.
func NewPostgresFeed(pool *pgxpool.Pool, channel string) (*PostgresFeed, error) {
	if pool == nil {
		return nil, errors.New("pgxpool.Pool cannot be nil")
	}
	return &PostgresFeed{pool: pool, channel: channel}, nil
}

// ConnectPostgresFeed opens a dedicated pool for LISTEN connections.
func ConnectPostgresFeed(ctx context.Context, dsn, channel string) (*PostgresFeed, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresFeed(pool, channel)
}

// Close releases the underlying pool.
func (f *PostgresFeed) Close() {
	f.pool.Close()
}

// SubscribeChanges listens on the feed's channel and calls onChange for every
// notification. A dropped connection is re-acquired after a short delay; events
// raised while disconnected are lost, which callers cover with a resync on reconnect.
func (f *PostgresFeed) SubscribeChanges(ctx context.Context, onChange func(models.ChangeEvent)) (io.Closer, error) {
	conn, err := f.listen(ctx)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := newSubscription(cancel)

	go func() {
		defer close(s.done)
		for {
			err := f.consume(subCtx, conn, onChange)
			f.release(conn)
			if subCtx.Err() != nil {
				return
			}
			middleware.Logger.WarnContext(subCtx, "postgres change feed interrupted",
				slog.String("channel", f.channel),
				slog.String("error", err.Error()),
			)

			conn = nil
			for conn == nil {
				select {
				case <-subCtx.Done():
					return
				case <-time.After(pgReconnectDelay):
				}
				conn, err = f.listen(subCtx)
				if err != nil {
					conn = nil
					continue
				}
				// A resync signal covers whatever was missed while disconnected.
				dispatch(subCtx, "postgres", `{"table":"`+models.ListingsTable+`","kind":"update"}`, onChange)
			}
		}
	}()

	return s, nil
}

func (f *PostgresFeed) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres change feed: acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("postgres change feed: listen: %w", err)
	}
	return conn, nil
}

func (f *PostgresFeed) consume(ctx context.Context, conn *pgxpool.Conn, onChange func(models.ChangeEvent)) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		dispatch(ctx, "postgres", n.Payload, onChange)
	}
}

func (f *PostgresFeed) release(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		// The connection is unusable; drop it from the pool.
		_ = conn.Conn().Close(ctx)
	}
	conn.Release()
}
