package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"estatehub/internal/bootstrap"
	"estatehub/internal/config"
	"estatehub/internal/models"
	"estatehub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTestRuntime points every command at a file-backed SQLite database that
// survives the runtime being closed between commands.
func useTestRuntime(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "estatehub.db"),
		RedisURL:   "127.0.0.1:1",
		ChangeFeed: config.FeedPoll,
	}
	prev := openRuntime
	openRuntime = func(ctx context.Context) (*bootstrap.Runtime, error) {
		return bootstrap.InitRuntime(ctx, cfg)
	}
	t.Cleanup(func() { openRuntime = prev })
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func insertPending(t *testing.T, cfg *config.Config, id string) {
	t.Helper()
	rt, err := bootstrap.InitRuntime(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()
	row := models.ListingRow{
		ID:          id,
		Title:       "Harbor view condo",
		Location:    "Seattle, WA",
		Price:       640000,
		PricePeriod: string(models.PriceTotal),
		ListingType: string(models.ListingSale),
		Status:      string(models.StatusPending),
		DealerName:  "Jane Agent",
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repository.NewListingRepository(rt.DB, nil).Create(context.Background(), &row))
}

func TestMigrate(t *testing.T) {
	useTestRuntime(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")
}

func TestSeedAndList(t *testing.T) {
	useTestRuntime(t)

	out, err := run(t, "seed", "--listings", "6", "--agents", "2", "--inquiries", "3", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 2 agents, 6 listings, 3 inquiries.")

	out, err = run(t, "listings", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "6 listing(s)")
	assert.Contains(t, out, "STATUS")

	out, err = run(t, "seed", "--listings", "2", "--agents", "1", "--inquiries", "0", "--clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 1 agents, 2 listings")

	out, err = run(t, "listings", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "2 listing(s)")
}

func TestSeed_RejectsNegativeCounts(t *testing.T) {
	useTestRuntime(t)
	_, err := run(t, "seed", "--listings", "-1")
	assert.Error(t, err)
}

func TestListingsApproveAndReject(t *testing.T) {
	cfg := useTestRuntime(t)
	insertPending(t, cfg, "listing-1")
	insertPending(t, cfg, "listing-2")

	out, err := run(t, "listings", "ls", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "2 listing(s)")

	out, err = run(t, "listings", "approve", "listing-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Listing listing-1 is now approved.")

	out, err = run(t, "listings", "reject", "listing-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Listing listing-2 is now rejected.")

	// Moderation is one-way.
	_, err = run(t, "listings", "reject", "listing-1")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInvalidTransition), "got %v", err)

	out, err = run(t, "listings", "ls", "--status", "approved")
	require.NoError(t, err)
	assert.Contains(t, out, "listing-1")
	assert.NotContains(t, out, "listing-2")
}

func TestListings_BadFilter(t *testing.T) {
	useTestRuntime(t)
	_, err := run(t, "listings", "ls", "--price", "cheap")
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestListingsApprove_RequiresID(t *testing.T) {
	useTestRuntime(t)
	_, err := run(t, "listings", "approve")
	assert.Error(t, err)
}
