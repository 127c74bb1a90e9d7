package service

import (
	"context"
	"sync"

	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/observability"
	"estatehub/internal/repository"
)

// ActiveListingCounter reports how many listings are publicly visible.
type ActiveListingCounter interface {
	ActiveCount() int
}

// MessageCounter reports inquiry totals.
type MessageCounter interface {
	Counts(ctx context.Context) (total, unread int64, err error)
}

// AnalyticsService records site activity. Increments that cannot reach the
// remote counters are kept as local pending deltas and retried with the next
// increment of the same counter.
type AnalyticsService struct {
	repo     repository.AnalyticsRepository
	messages MessageCounter
	listings ActiveListingCounter

	mu        sync.Mutex
	pending   map[string]int64
	lastKnown models.AnalyticsCounters
}

// NewAnalyticsService creates an analytics service. messages and listings may be nil.
func NewAnalyticsService(repo repository.AnalyticsRepository, messages MessageCounter, listings ActiveListingCounter) *AnalyticsService {
	return &AnalyticsService{
		repo:     repo,
		messages: messages,
		listings: listings,
		pending:  make(map[string]int64),
	}
}

// RecordPageView counts one page view.
func (s *AnalyticsService) RecordPageView(ctx context.Context) {
	s.record(ctx, repository.CounterPageViews)
}

// RecordPropertyView counts one listing detail view.
func (s *AnalyticsService) RecordPropertyView(ctx context.Context) {
	s.record(ctx, repository.CounterPropertyViews)
}

// RecordRegistration counts one completed signup.
func (s *AnalyticsService) RecordRegistration(ctx context.Context) {
	s.record(ctx, repository.CounterUserRegistrations)
}

func (s *AnalyticsService) record(ctx context.Context, counter string) {
	s.mu.Lock()
	delta := s.pending[counter] + 1
	delete(s.pending, counter)
	s.mu.Unlock()

	if err := s.repo.Increment(ctx, counter, delta); err != nil {
		s.mu.Lock()
		s.pending[counter] += delta
		s.mu.Unlock()
		observability.AnalyticsFallbacks.WithLabelValues(counter).Inc()
		middleware.Logger.WarnContext(ctx, "Keeping analytics increment locally",
			"counter", counter,
			"pending", delta,
			"error", err,
		)
	}
}

// Pending returns the local delta not yet applied to counter.
func (s *AnalyticsService) Pending(counter string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[counter]
}

// Summary combines the remote counters with local pending deltas, inquiry
// totals and the number of active listings. When a remote read fails the last
// known values are used and the summary is marked stale.
func (s *AnalyticsService) Summary(ctx context.Context) models.AnalyticsSummary {
	var summary models.AnalyticsSummary

	counters, err := s.repo.Get(ctx)

	s.mu.Lock()
	if err == nil {
		s.lastKnown = *counters
	} else {
		summary.Stale = true
		middleware.Logger.WarnContext(ctx, "Using last known analytics counters", "error", err)
	}
	known := s.lastKnown
	summary.PageViews = known.PageViews + s.pending[repository.CounterPageViews]
	summary.PropertyViews = known.PropertyViews + s.pending[repository.CounterPropertyViews]
	summary.UserRegistrations = known.UserRegistrations + s.pending[repository.CounterUserRegistrations]
	s.mu.Unlock()

	if s.messages != nil {
		total, unread, err := s.messages.Counts(ctx)
		if err != nil {
			summary.Stale = true
			middleware.Logger.WarnContext(ctx, "Message counts unavailable", "error", err)
		} else {
			summary.Messages = total
			summary.UnreadMessages = unread
		}
	}
	if s.listings != nil {
		summary.ActiveListings = s.listings.ActiveCount()
	}
	return summary
}
