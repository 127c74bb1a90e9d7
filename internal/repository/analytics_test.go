package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsRepository_Increment(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	counters, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Zero(t, counters.PageViews)

	require.NoError(t, repo.Increment(ctx, CounterPageViews, 1))
	require.NoError(t, repo.Increment(ctx, CounterPageViews, 2))
	require.NoError(t, repo.Increment(ctx, CounterUserRegistrations, 1))

	counters, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counters.PageViews)
	assert.Equal(t, int64(0), counters.PropertyViews)
	assert.Equal(t, int64(1), counters.UserRegistrations)
}

func TestAnalyticsRepository_UnknownCounter(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewAnalyticsRepository(db)

	assert.Error(t, repo.Increment(context.Background(), "id; DROP TABLE analytics", 1))
}
