// Package testutil provides in-memory fakes of the remote listing store and
// change feed for tests.
package testutil

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"estatehub/internal/models"

	"github.com/google/uuid"
)

// ErrUnavailable is returned by a FakeRemote whose Fail flag is set.
var ErrUnavailable = errors.New("fake remote: connection refused")

// FakeRemote is an in-memory listing store that records how often each
// operation was called.
type FakeRemote struct {
	mu    sync.Mutex
	rows  map[string]models.ListingRow
	calls map[string]int

	// FailList, FailWrites make the respective operations return ErrUnavailable.
	FailList   bool
	FailWrites bool
}

// NewFakeRemote returns a store seeded with rows.
func NewFakeRemote(rows ...models.ListingRow) *FakeRemote {
	f := &FakeRemote{
		rows:  make(map[string]models.ListingRow),
		calls: make(map[string]int),
	}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

// Calls reports how many times op was invoked.
func (f *FakeRemote) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls reports how many operations of any kind were invoked.
func (f *FakeRemote) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Row returns the stored row with id.
func (f *FakeRemote) Row(id string) (models.ListingRow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	return r, ok
}

// SetFailures toggles failure injection.
func (f *FakeRemote) SetFailures(list, writes bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailList = list
	f.FailWrites = writes
}

// Put inserts or replaces a row without counting a call, as another process would.
func (f *FakeRemote) Put(row models.ListingRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[row.ID] = row
}

func (f *FakeRemote) List(_ context.Context) ([]models.ListingRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.FailList {
		return nil, ErrUnavailable
	}
	out := make([]models.ListingRow, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *FakeRemote) Create(_ context.Context, row *models.ListingRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.FailWrites {
		return ErrUnavailable
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	f.rows[row.ID] = *row
	return nil
}

func (f *FakeRemote) Update(_ context.Context, id string, columns map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.FailWrites {
		return ErrUnavailable
	}
	row, ok := f.rows[id]
	if !ok {
		return models.NewNotFoundError("Listing", id)
	}
	for col, v := range columns {
		applyColumn(&row, col, v)
	}
	f.rows[id] = row
	return nil
}

func (f *FakeRemote) UpdateStatus(_ context.Context, id string, from, to models.ListingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update_status"]++
	if f.FailWrites {
		return ErrUnavailable
	}
	row, ok := f.rows[id]
	if !ok {
		return models.NewNotFoundError("Listing", id)
	}
	if row.Status != string(from) {
		return models.NewInvalidTransitionError(models.ListingStatus(row.Status), to)
	}
	row.Status = string(to)
	f.rows[id] = row
	return nil
}

func (f *FakeRemote) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.FailWrites {
		return ErrUnavailable
	}
	delete(f.rows, id)
	return nil
}

func applyColumn(row *models.ListingRow, col string, v interface{}) {
	switch col {
	case "title":
		row.Title = v.(string)
	case "location":
		row.Location = v.(string)
	case "price":
		row.Price = v.(float64)
	case "listing_type":
		row.ListingType = v.(string)
	case "price_period":
		row.PricePeriod = v.(string)
	case "property_type":
		row.PropertyType = v.(string)
	case "bedrooms":
		row.Bedrooms = v.(int)
	case "bathrooms":
		row.Bathrooms = v.(int)
	case "sqft":
		sqft := v.(int)
		row.Sqft = &sqft
	case "dealer_name":
		row.DealerName = v.(string)
	case "description":
		row.Description = v.(string)
	case "image_url":
		row.ImageURL = v.(string)
	}
}

// FakeChangeSource lets tests push change notifications by hand.
type FakeChangeSource struct {
	mu       sync.Mutex
	handlers map[int]func(models.ChangeEvent)
	next     int
	// Err, when set, is returned from SubscribeChanges.
	Err error
}

// NewFakeChangeSource returns a source with no subscribers.
func NewFakeChangeSource() *FakeChangeSource {
	return &FakeChangeSource{handlers: make(map[int]func(models.ChangeEvent))}
}

// SubscribeChanges registers onChange until the returned closer is closed.
func (f *FakeChangeSource) SubscribeChanges(_ context.Context, onChange func(models.ChangeEvent)) (io.Closer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	id := f.next
	f.next++
	f.handlers[id] = onChange
	return closerFunc(func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
		return nil
	}), nil
}

// Emit delivers event synchronously to every subscriber.
func (f *FakeChangeSource) Emit(event models.ChangeEvent) {
	f.mu.Lock()
	handlers := make([]func(models.ChangeEvent), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(event)
	}
}

// Subscribers reports the number of open subscriptions.
func (f *FakeChangeSource) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }
