// Package bootstrap connects the runtime dependencies shared by the API
// server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/cache"
	"estatehub/internal/catalog"
	"estatehub/internal/config"
	"estatehub/internal/database"
	"estatehub/internal/middleware"
	"estatehub/internal/notifications"
	"estatehub/internal/repository"
	"estatehub/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds connected dependencies. Optional ones are nil when their
// backing service is not configured or unreachable.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	// Feed is the change feed in effect after fallbacks.
	Feed string
	// Changes delivers listing change events. Nil means the catalog polls.
	Changes catalog.ChangeSource
	// Publisher announces repository writes. Nil when the database announces them itself.
	Publisher repository.ChangePublisher
	// Inquiries forwards new inquiries to RabbitMQ.
	Inquiries *notifications.InquiryPublisher

	closers []func()
}

// InitRuntime connects to the database, Redis, the configured change feed and
// the inquiry broker. Only the database is required.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client means Redis is unreachable; features degrade individually.
	cache.InitRedis(cfg.RedisURL)

	rt := &Runtime{Config: cfg, DB: db, Redis: cache.GetClient()}
	rt.selectFeed(ctx)

	if cfg.AMQPURL != "" {
		pub, err := notifications.NewInquiryPublisher(cfg.AMQPURL, cfg.InquiryExchange)
		if err != nil {
			middleware.Logger.Warn("Inquiry forwarding disabled", "error", err)
		} else {
			rt.Inquiries = pub
			rt.closers = append(rt.closers, func() { _ = pub.Close() })
		}
	}

	if err := EnsureDevAdmin(ctx, cfg, service.NewUserService(repository.NewUserRepository(db))); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	return rt, nil
}

// selectFeed wires the configured change feed, falling back to polling when
// its backing service is unavailable.
func (r *Runtime) selectFeed(ctx context.Context) {
	r.Feed = config.FeedPoll

	switch r.Config.ChangeFeed {
	case config.FeedRedis:
		if r.Redis == nil {
			middleware.Logger.Warn("Redis change feed unavailable, falling back to polling")
			return
		}
		notifier := notifications.NewNotifier(r.Redis)
		r.Changes = notifier
		r.Publisher = notifier
		r.Feed = config.FeedRedis

	case config.FeedPostgres:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		feed, err := notifications.ConnectPostgresFeed(dialCtx, r.Config.PostgresDSN(), database.ListingChangesChannel)
		if err != nil {
			middleware.Logger.Warn("Postgres change feed unavailable, falling back to polling", "error", err)
			return
		}
		r.Changes = feed
		r.closers = append(r.closers, feed.Close)
		r.Feed = config.FeedPostgres
	}
}

// ListingRepository returns the remote listing store wired to the selected feed.
func (r *Runtime) ListingRepository() repository.ListingRepository {
	return repository.NewListingRepository(r.DB, r.Publisher)
}

// Close releases every connection the runtime opened.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// EnsureDevAdmin creates or promotes the development admin account. It does
// nothing outside development or when no password is configured.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, users *service.UserService) error {
	if cfg == nil || !strings.EqualFold(cfg.Env, "development") || cfg.DevAdminPassword == "" {
		return nil
	}
	created, err := users.EnsureAdmin(ctx, cfg.DevAdminEmail, cfg.DevAdminPassword)
	if err != nil {
		return err
	}
	if created {
		middleware.Logger.Info("Development admin created", "email", cfg.DevAdminEmail)
	}
	return nil
}
