package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"estatehub/internal/models"
	"estatehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func validDraft() models.ListingDraft {
	return models.ListingDraft{
		Title:        "Sunny bungalow",
		Location:     "Denver, CO",
		Price:        ptr(425000.0),
		ListingType:  models.ListingSale,
		PropertyType: "house",
		Bedrooms:     3,
		Bathrooms:    2,
		Agent:        "Jane Agent",
	}
}

func seededStore(t *testing.T, opts ...Option) (*Store, *testutil.FakeRemote) {
	t.Helper()
	remote := testutil.NewFakeRemote(
		testutil.Row("1", models.StatusPending, models.ListingSale, base),
		testutil.Row("2", models.StatusApproved, models.ListingSale, base.Add(time.Hour)),
		testutil.Row("3", models.StatusApproved, models.ListingRent, base.Add(2*time.Hour)),
	)
	s := New(remote, opts...)
	_, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	return s, remote
}

func ids(listings []models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestStore_LoadAllNewestFirst(t *testing.T) {
	s, _ := seededStore(t)

	assert.True(t, s.Loaded())
	assert.Equal(t, []string{"3", "2", "1"}, ids(s.Snapshot()))

	l, ok := s.Get("3")
	require.True(t, ok)
	assert.Equal(t, models.ListingRent, l.ListingType)
	assert.Equal(t, models.PriceMonthly, l.PricePeriod)
	assert.Equal(t, "Jane Agent", l.Agent)
	assert.Equal(t, "house", l.PropertyType)
	assert.Equal(t, models.DefaultListingImage, l.Image)
	assert.Equal(t, base.Add(2*time.Hour), l.DateAdded)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_LoadAllFailureKeepsSnapshot(t *testing.T) {
	s, remote := seededStore(t)
	remote.SetFailures(true, false)

	_, err := s.LoadAll(context.Background())
	assert.Equal(t, models.CodeRemoteUnavailable, codeOf(t, err))
	assert.Equal(t, []string{"3", "2", "1"}, ids(s.Snapshot()))
}

func TestStore_NotLoadedUntilFirstSuccess(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.SetFailures(true, false)
	s := New(remote)

	_, err := s.LoadAll(context.Background())
	require.Error(t, err)
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Snapshot())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s, _ := seededStore(t)

	snap := s.Snapshot()
	snap[0].Title = "mutated"

	l, _ := s.Get(snap[0].ID)
	assert.NotEqual(t, "mutated", l.Title)
}

func TestStore_CreateEmptyTitleNeverReachesRemote(t *testing.T) {
	remote := testutil.NewFakeRemote()
	s := New(remote)

	draft := validDraft()
	draft.Title = ""
	_, err := s.Create(context.Background(), draft)

	assert.Equal(t, models.CodeValidation, codeOf(t, err))
	assert.Zero(t, remote.TotalCalls())
}

func TestStore_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.ListingDraft)
		fields []string
	}{
		{"missing title", func(d *models.ListingDraft) { d.Title = "" }, []string{"title"}},
		{"blank location", func(d *models.ListingDraft) { d.Location = "   " }, []string{"location"}},
		{"missing price", func(d *models.ListingDraft) { d.Price = nil }, []string{"price"}},
		{"all missing", func(d *models.ListingDraft) { d.Title, d.Location, d.Price = "", "", nil }, []string{"title", "location", "price"}},
		{"negative price", func(d *models.ListingDraft) { d.Price = ptr(-1.0) }, []string{"price"}},
		{"unknown listing type", func(d *models.ListingDraft) { d.ListingType = "lease" }, []string{"listingType"}},
		{"negative bedrooms", func(d *models.ListingDraft) { d.Bedrooms = -2 }, []string{"bedrooms"}},
		{"url and upload", func(d *models.ListingDraft) {
			d.ImageURL = "https://img/x.png"
			d.ImageUpload = &models.ImageUpload{Filename: "x.png", Data: []byte{1}}
		}, []string{"image"}},
		{"upload without resolver", func(d *models.ListingDraft) {
			d.ImageUpload = &models.ImageUpload{Filename: "x.png", Data: []byte{1}}
		}, []string{"image"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := testutil.NewFakeRemote()
			s := New(remote)
			d := validDraft()
			tt.mutate(&d)

			_, err := s.Create(context.Background(), d)
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.fields, appErr.Fields)
			assert.Zero(t, remote.TotalCalls())
		})
	}
}

func TestStore_CreateForcesPendingAndResyncs(t *testing.T) {
	now := base.Add(24 * time.Hour)
	s, remote := seededStore(t, WithClock(func() time.Time { return now }))

	d := validDraft()
	d.ListingType = models.ListingRent
	d.Sqft = ptr(0)
	id, err := s.Create(context.Background(), d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	l, ok := s.Get(id)
	require.True(t, ok, "snapshot should contain the new listing after create")
	assert.Equal(t, models.StatusPending, l.Status)
	assert.Equal(t, models.PriceMonthly, l.PricePeriod)
	assert.Equal(t, now, l.DateAdded)
	require.NotNil(t, l.Sqft)
	assert.Equal(t, 0, *l.Sqft)
	assert.Equal(t, id, s.Snapshot()[0].ID)
	assert.Equal(t, 2, remote.Calls("list"))
}

func TestStore_CreateDefaultsToSale(t *testing.T) {
	s, _ := seededStore(t)
	d := validDraft()
	d.ListingType = ""

	id, err := s.Create(context.Background(), d)
	require.NoError(t, err)

	l, _ := s.Get(id)
	assert.Equal(t, models.ListingSale, l.ListingType)
	assert.Equal(t, models.PriceTotal, l.PricePeriod)
	assert.Nil(t, l.Sqft)
}

type stubResolver struct {
	url string
	err error
}

func (r stubResolver) Resolve(_ context.Context, _ models.ImageUpload) (string, error) {
	return r.url, r.err
}

func TestStore_CreateResolvesUpload(t *testing.T) {
	s, _ := seededStore(t, WithImageResolver(stubResolver{url: "/uploads/abc.png"}))
	d := validDraft()
	d.ImageUpload = &models.ImageUpload{Filename: "house.png", Data: []byte("png")}

	id, err := s.Create(context.Background(), d)
	require.NoError(t, err)

	l, _ := s.Get(id)
	assert.Equal(t, "/uploads/abc.png", l.Image)
}

func TestStore_CreateUploadFailure(t *testing.T) {
	remote := testutil.NewFakeRemote()
	s := New(remote, WithImageResolver(stubResolver{err: errors.New("disk full")}))
	d := validDraft()
	d.ImageUpload = &models.ImageUpload{Filename: "house.png", Data: []byte("png")}

	_, err := s.Create(context.Background(), d)
	assert.Equal(t, models.CodeRemoteUnavailable, codeOf(t, err))
	assert.Zero(t, remote.Calls("create"))
}

func TestStore_CreateRemoteFailure(t *testing.T) {
	s, remote := seededStore(t)
	remote.SetFailures(false, true)

	_, err := s.Create(context.Background(), validDraft())
	assert.Equal(t, models.CodeRemoteUnavailable, codeOf(t, err))
	assert.Len(t, s.Snapshot(), 3)
}

func TestStore_CreatePartialFailure(t *testing.T) {
	s, remote := seededStore(t)
	remote.SetFailures(true, false)

	id, err := s.Create(context.Background(), validDraft())
	assert.Equal(t, models.CodePartialFailure, codeOf(t, err))
	assert.NotEmpty(t, id)

	_, stored := remote.Row(id)
	assert.True(t, stored)
	_, cached := s.Get(id)
	assert.False(t, cached)
}

func TestStore_UpdatePatchSemantics(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	err := s.Update(ctx, "2", models.ListingPatch{
		Title:       ptr("Renovated loft"),
		ListingType: ptr(models.ListingRent),
	})
	require.NoError(t, err)

	l, _ := s.Get("2")
	assert.Equal(t, "Renovated loft", l.Title)
	assert.Equal(t, models.ListingRent, l.ListingType)
	assert.Equal(t, models.PriceMonthly, l.PricePeriod)
	// Unset fields are unchanged.
	assert.Equal(t, "Austin, TX", l.Location)
	assert.Equal(t, 3, l.Bedrooms)
	assert.Equal(t, models.StatusApproved, l.Status)
	assert.Equal(t, base.Add(time.Hour), l.DateAdded)
}

func TestStore_UpdateErrors(t *testing.T) {
	s, remote := seededStore(t)
	ctx := context.Background()

	err := s.Update(ctx, "missing", models.ListingPatch{Title: ptr("x")})
	assert.Equal(t, models.CodeNotFound, codeOf(t, err))

	calls := remote.Calls("update")
	err = s.Update(ctx, "2", models.ListingPatch{Title: ptr("  ")})
	assert.Equal(t, models.CodeValidation, codeOf(t, err))
	err = s.Update(ctx, "2", models.ListingPatch{Bedrooms: ptr(-1)})
	assert.Equal(t, models.CodeValidation, codeOf(t, err))
	assert.Equal(t, calls, remote.Calls("update"))

	remote.SetFailures(false, true)
	err = s.Update(ctx, "2", models.ListingPatch{Title: ptr("x")})
	assert.Equal(t, models.CodeRemoteUnavailable, codeOf(t, err))
}

func TestStore_SetStatus(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetStatus(ctx, "1", models.StatusApproved))
	l, _ := s.Get("1")
	assert.Equal(t, models.StatusApproved, l.Status)

	// Terminal states never move again.
	err := s.SetStatus(ctx, "1", models.StatusRejected)
	assert.Equal(t, models.CodeInvalidTransition, codeOf(t, err))

	err = s.SetStatus(ctx, "2", models.StatusPending)
	assert.Equal(t, models.CodeInvalidTransition, codeOf(t, err))

	err = s.SetStatus(ctx, "2", "archived")
	assert.Equal(t, models.CodeValidation, codeOf(t, err))

	err = s.SetStatus(ctx, "missing", models.StatusRejected)
	assert.Equal(t, models.CodeNotFound, codeOf(t, err))
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	s, remote := seededStore(t)

	require.NoError(t, s.Delete(context.Background(), "does-not-exist"))
	assert.Equal(t, 1, remote.Calls("delete"))
	assert.Len(t, s.Snapshot(), 3)

	require.NoError(t, s.Delete(context.Background(), "2"))
	assert.Equal(t, []string{"3", "1"}, ids(s.Snapshot()))
}

func TestStore_RedundantReloadIsIdempotent(t *testing.T) {
	src := testutil.NewFakeChangeSource()
	s, _ := seededStore(t, WithChangeSource(src))
	ctx := context.Background()

	sub, err := s.SubscribeToChanges(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	require.NoError(t, s.Update(ctx, "2", models.ListingPatch{Price: ptr(199000.0)}))
	afterUpdate := s.Snapshot()

	// The feed reports the same change after the local resync already ran.
	src.Emit(models.ChangeEvent{Table: models.ListingsTable, Kind: models.ChangeUpdate, ID: "2"})
	assert.Equal(t, afterUpdate, s.Snapshot())

	_, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, afterUpdate, s.Snapshot())
}

func TestStore_SubscribeReloadsOnRemoteChange(t *testing.T) {
	src := testutil.NewFakeChangeSource()
	s, remote := seededStore(t, WithChangeSource(src))

	var reloaded []models.Listing
	sub, err := s.SubscribeToChanges(context.Background(), func(l []models.Listing) { reloaded = l })
	require.NoError(t, err)

	remote.Put(testutil.Row("4", models.StatusApproved, models.ListingSale, base.Add(3*time.Hour)))
	src.Emit(models.ChangeEvent{Table: "messages", Kind: models.ChangeInsert})
	assert.Nil(t, reloaded, "other tables are ignored")

	src.Emit(models.ChangeEvent{Table: models.ListingsTable, Kind: models.ChangeInsert, ID: "4"})
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(reloaded))
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(s.Snapshot()))

	require.NoError(t, sub.Close())
	assert.Zero(t, src.Subscribers())
}

func TestStore_SubscribeKeepsSnapshotOnReloadFailure(t *testing.T) {
	src := testutil.NewFakeChangeSource()
	s, remote := seededStore(t, WithChangeSource(src))

	called := false
	sub, err := s.SubscribeToChanges(context.Background(), func([]models.Listing) { called = true })
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	remote.SetFailures(true, false)
	src.Emit(models.ChangeEvent{Table: models.ListingsTable, Kind: models.ChangeDelete, ID: "1"})

	assert.False(t, called)
	assert.Len(t, s.Snapshot(), 3)
}

func TestStore_SubscribeWithoutSource(t *testing.T) {
	s := New(testutil.NewFakeRemote())
	_, err := s.SubscribeToChanges(context.Background(), nil)
	assert.Error(t, err)

	src := testutil.NewFakeChangeSource()
	src.Err = errors.New("feed down")
	s = New(testutil.NewFakeRemote(), WithChangeSource(src))
	_, err = s.SubscribeToChanges(context.Background(), nil)
	assert.Error(t, err)
}

func TestStore_PollStopsOnCancel(t *testing.T) {
	remote := testutil.NewFakeRemote(testutil.Row("1", models.StatusApproved, models.ListingSale, base))
	s := New(remote)
	ctx, cancel := context.WithCancel(context.Background())

	reloads := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		s.Poll(ctx, 5*time.Millisecond, func(l []models.Listing) {
			select {
			case reloads <- len(l):
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-reloads:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("poll never reloaded")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poll did not stop after cancel")
	}
	assert.True(t, s.Loaded())
}
