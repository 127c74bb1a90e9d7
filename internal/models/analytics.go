package models

import "time"

// AnalyticsCounters is the single-row table of site counters.
type AnalyticsCounters struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	PageViews         int64     `gorm:"column:page_views;not null;default:0" json:"page_views"`
	PropertyViews     int64     `gorm:"column:property_views;not null;default:0" json:"property_views"`
	UserRegistrations int64     `gorm:"column:user_registrations;not null;default:0" json:"user_registrations"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName pins the analytics table name.
func (AnalyticsCounters) TableName() string {
	return "analytics"
}

// AnalyticsSummary is the admin dashboard view of site activity.
type AnalyticsSummary struct {
	PageViews         int64 `json:"pageViews"`
	PropertyViews     int64 `json:"propertyViews"`
	UserRegistrations int64 `json:"userRegistrations"`
	ActiveListings    int   `json:"activeListings"`
	Messages          int64 `json:"messages"`
	UnreadMessages    int64 `json:"unreadMessages"`
	// Stale is set when remote counters could not be read and the last known
	// values were used instead.
	Stale bool `json:"stale,omitempty"`
}
