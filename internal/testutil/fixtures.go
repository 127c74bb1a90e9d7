package testutil

import (
	"fmt"
	"time"

	"estatehub/internal/models"
)

// AgentID is the dealer account id of rows built by Row and Listing.
const AgentID uint = 2

// Row builds a listing row with sensible defaults. Later rows in a test
// should use a later created time to control ordering.
func Row(id string, status models.ListingStatus, lt models.ListingType, created time.Time) models.ListingRow {
	return models.ListingRow{
		ID:           id,
		Title:        fmt.Sprintf("Listing %s", id),
		Location:     "Austin, TX",
		Price:        300000,
		PricePeriod:  string(models.PeriodFor(lt)),
		PropertyType: "house",
		Bedrooms:     3,
		Bathrooms:    2,
		ListingType:  string(lt),
		Status:       string(status),
		DealerName:   "Jane Agent",
		DealerID:     AgentID,
		CreatedAt:    created,
	}
}

// Listing builds an in-memory listing for query tests.
func Listing(id string, status models.ListingStatus, lt models.ListingType) models.Listing {
	return models.Listing{
		ID:           id,
		Title:        fmt.Sprintf("Listing %s", id),
		Location:     "Austin, TX",
		Price:        300000,
		PricePeriod:  models.PeriodFor(lt),
		ListingType:  lt,
		PropertyType: "house",
		Bedrooms:     3,
		Bathrooms:    2,
		Status:       status,
		Agent:        "Jane Agent",
		DealerID:     AgentID,
		Image:        models.DefaultListingImage,
	}
}
