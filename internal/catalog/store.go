// Package catalog keeps the in-process view of all listings synchronized with
// the remote listing store.
//
// The snapshot is never merged incrementally. Every mutation and every change
// notification re-reads the whole collection and replaces the snapshot
// wholesale, so readers only ever see a complete, consistent collection.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"estatehub/internal/models"
	"estatehub/internal/observability"
	"estatehub/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// RemoteStore is the persistent listing store the catalog mirrors.
type RemoteStore interface {
	List(ctx context.Context) ([]models.ListingRow, error)
	Create(ctx context.Context, row *models.ListingRow) error
	Update(ctx context.Context, id string, columns map[string]interface{}) error
	UpdateStatus(ctx context.Context, id string, from, to models.ListingStatus) error
	Delete(ctx context.Context, id string) error
}

// ChangeSource delivers remote-originated change notifications.
type ChangeSource interface {
	SubscribeChanges(ctx context.Context, onChange func(models.ChangeEvent)) (io.Closer, error)
}

// ImageResolver turns a pending upload into a hosted image URL.
type ImageResolver interface {
	Resolve(ctx context.Context, upload models.ImageUpload) (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithImageResolver lets drafts carry image uploads.
func WithImageResolver(r ImageResolver) Option {
	return func(s *Store) { s.images = r }
}

// WithChangeSource sets the feed SubscribeToChanges listens on.
func WithChangeSource(src ChangeSource) Option {
	return func(s *Store) { s.changes = src }
}

// WithClock overrides the clock used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the authoritative in-process view of all listings.
type Store struct {
	remote  RemoteStore
	changes ChangeSource
	images  ImageResolver
	now     func() time.Time
	log     *observability.StoreLogger

	// syncMu serializes reloads so an older read never replaces a newer one.
	syncMu   sync.Mutex
	snapshot atomic.Pointer[[]models.Listing]
	loaded   atomic.Bool
}

// New creates a Store with an empty snapshot. Call LoadAll to seed it.
func New(remote RemoteStore, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		now:    time.Now,
		log:    observability.NewStoreLogger("catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := []models.Listing{}
	s.snapshot.Store(&empty)
	return s
}

// Snapshot returns the current listings, newest first. It never blocks on the
// remote store; the result may be stale while a reload is in flight.
func (s *Store) Snapshot() []models.Listing {
	return slices.Clone(*s.snapshot.Load())
}

// Get returns the listing with id from the current snapshot.
func (s *Store) Get(id string) (models.Listing, bool) {
	for _, l := range *s.snapshot.Load() {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

// Loaded reports whether at least one reload has succeeded.
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

// LoadAll re-reads the full collection and replaces the snapshot. On failure
// the previous snapshot is kept and a REMOTE_UNAVAILABLE error is returned.
func (s *Store) LoadAll(ctx context.Context) ([]models.Listing, error) {
	return s.reload(ctx, "load")
}

func (s *Store) reload(ctx context.Context, reason string) ([]models.Listing, error) {
	span, ctx := observability.NewSpan(ctx, "catalog.reload", attribute.String("reason", reason))
	defer span.End()

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	start := time.Now()
	rows, err := s.remote.List(ctx)
	observability.CatalogResyncLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.CatalogResyncs.WithLabelValues("error").Inc()
		span.SetError(err)
		s.log.LogError(ctx, err, "reload:"+reason)
		return nil, models.NewRemoteUnavailableError("load listings", err)
	}

	next := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		next = append(next, toListing(row))
	}
	s.snapshot.Store(&next)
	s.loaded.Store(true)

	observability.CatalogResyncs.WithLabelValues("ok").Inc()
	observability.CatalogSnapshotSize.Set(float64(len(next)))
	span.AddAttributes(attribute.Int("listings", len(next)))
	s.log.LogSync(ctx, reason, len(next), time.Since(start))
	return slices.Clone(next), nil
}

// resyncAfter reloads after a successful remote mutation. A failed reload
// becomes a PARTIAL_FAILURE: the mutation stands, the snapshot may be stale.
func (s *Store) resyncAfter(ctx context.Context, op string) error {
	if _, err := s.reload(ctx, op); err != nil {
		return models.NewPartialFailureError(op, err)
	}
	return nil
}

// Create validates draft, forces it to pending and inserts it remotely. It
// returns the new listing id. Validation failures never reach the remote store.
func (s *Store) Create(ctx context.Context, draft models.ListingDraft) (string, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Location = strings.TrimSpace(draft.Location)
	if err := validation.Struct(draft); err != nil {
		return "", err
	}
	if draft.ImageUpload != nil && draft.ImageURL != "" {
		return "", models.NewValidationError("provide either an image URL or an upload, not both", "image")
	}

	imageURL := draft.ImageURL
	if draft.ImageUpload != nil {
		if s.images == nil {
			return "", models.NewValidationError("image uploads are not accepted", "image")
		}
		url, err := s.images.Resolve(ctx, *draft.ImageUpload)
		if err != nil {
			if isAppError(err) {
				return "", err
			}
			return "", models.NewRemoteUnavailableError("upload image", err)
		}
		imageURL = url
	}

	row := draftRow(draft, imageURL, s.now())
	if err := s.remote.Create(ctx, row); err != nil {
		return "", remoteError("create listing", err)
	}
	s.log.LogMutation(ctx, "create", row.ID)

	return row.ID, s.resyncAfter(ctx, "create listing")
}

// Update applies the set fields of patch to listing id.
func (s *Store) Update(ctx context.Context, id string, patch models.ListingPatch) error {
	if err := validation.Struct(patch); err != nil {
		return err
	}
	if err := s.remote.Update(ctx, id, patchColumns(patch)); err != nil {
		return remoteError("update listing", err)
	}
	s.log.LogMutation(ctx, "update", id)
	return s.resyncAfter(ctx, "update listing")
}

// SetStatus moderates listing id. Only pending listings move, and only to
// approved or rejected.
func (s *Store) SetStatus(ctx context.Context, id string, status models.ListingStatus) error {
	if !status.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown status %q", status), "status")
	}
	if !models.StatusPending.CanTransitionTo(status) {
		return models.NewInvalidTransitionError(models.StatusPending, status)
	}
	if err := s.remote.UpdateStatus(ctx, id, models.StatusPending, status); err != nil {
		return remoteError("moderate listing", err)
	}
	s.log.LogMutation(ctx, "status:"+string(status), id)
	return s.resyncAfter(ctx, "moderate listing")
}

// Delete removes listing id. Deleting an absent id succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		return remoteError("delete listing", err)
	}
	s.log.LogMutation(ctx, "delete", id)
	return s.resyncAfter(ctx, "delete listing")
}

// SubscribeToChanges reloads the snapshot on every listing change notification
// and then calls onReload with the fresh snapshot. Notifications for other
// tables are ignored. Close the returned subscription to stop listening.
func (s *Store) SubscribeToChanges(ctx context.Context, onReload func([]models.Listing)) (io.Closer, error) {
	if s.changes == nil {
		return nil, errors.New("catalog: no change source configured")
	}
	return s.changes.SubscribeChanges(ctx, func(event models.ChangeEvent) {
		if event.Table != models.ListingsTable {
			return
		}
		listings, err := s.reload(ctx, "change:"+string(event.Kind))
		if err != nil {
			s.log.LogWarn(ctx, "keeping previous snapshot after change notification",
				"kind", string(event.Kind), "id", event.ID)
			return
		}
		if onReload != nil {
			onReload(listings)
		}
	})
}

// Poll reloads every interval until ctx ends. It is the fallback when no
// change feed is available. onReload is called after each successful reload.
func (s *Store) Poll(ctx context.Context, interval time.Duration, onReload func([]models.Listing)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			listings, err := s.reload(ctx, "poll")
			if err == nil && onReload != nil {
				onReload(listings)
			}
		}
	}
}

func isAppError(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr)
}

// remoteError keeps classified errors (not found, invalid transition) and
// treats anything else as a transport failure.
func remoteError(op string, err error) error {
	if isAppError(err) {
		return err
	}
	return models.NewRemoteUnavailableError(op, err)
}
