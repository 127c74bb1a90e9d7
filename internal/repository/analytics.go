package repository

import (
	"context"
	"fmt"

	"estatehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Analytics counter columns.
const (
	CounterPageViews         = "page_views"
	CounterPropertyViews     = "property_views"
	CounterUserRegistrations = "user_registrations"
)

const analyticsRowID = 1

// AnalyticsRepository keeps the single row of site counters.
type AnalyticsRepository interface {
	Increment(ctx context.Context, counter string, delta int64) error
	Get(ctx context.Context) (*models.AnalyticsCounters, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func validCounter(counter string) bool {
	switch counter {
	case CounterPageViews, CounterPropertyViews, CounterUserRegistrations:
		return true
	}
	return false
}

func (r *analyticsRepository) Increment(ctx context.Context, counter string, delta int64) error {
	if !validCounter(counter) {
		return fmt.Errorf("unknown analytics counter %q", counter)
	}
	if err := r.ensureRow(ctx); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.AnalyticsCounters{}).
		Where("id = ?", analyticsRowID).
		Update(counter, gorm.Expr(counter+" + ?", delta)).Error
}

func (r *analyticsRepository) Get(ctx context.Context) (*models.AnalyticsCounters, error) {
	if err := r.ensureRow(ctx); err != nil {
		return nil, err
	}
	var counters models.AnalyticsCounters
	if err := r.db.WithContext(ctx).First(&counters, analyticsRowID).Error; err != nil {
		return nil, err
	}
	return &counters, nil
}

func (r *analyticsRepository) ensureRow(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.AnalyticsCounters{ID: analyticsRowID}).Error
}
