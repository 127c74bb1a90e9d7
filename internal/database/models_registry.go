package database

import "estatehub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.ListingRow{},
		&models.Message{},
		&models.AnalyticsCounters{},
	}
}
