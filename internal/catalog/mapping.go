package catalog

import (
	"strings"
	"time"

	"estatehub/internal/models"
)

// toListing maps a persisted row onto the in-memory model.
func toListing(row models.ListingRow) models.Listing {
	l := models.Listing{
		ID:           row.ID,
		Title:        row.Title,
		Location:     row.Location,
		Price:        row.Price,
		PricePeriod:  models.PricePeriod(row.PricePeriod),
		ListingType:  models.ListingType(row.ListingType),
		PropertyType: row.PropertyType,
		Bedrooms:     row.Bedrooms,
		Bathrooms:    row.Bathrooms,
		Status:       models.ListingStatus(row.Status),
		Agent:        row.DealerName,
		DealerID:     row.DealerID,
		DateAdded:    row.CreatedAt,
		Description:  row.Description,
		Image:        row.ImageURL,
	}
	if row.Sqft != nil {
		sqft := *row.Sqft
		l.Sqft = &sqft
	}
	if l.ListingType == "" {
		l.ListingType = models.ListingSale
	}
	if l.PricePeriod == "" {
		l.PricePeriod = models.PeriodFor(l.ListingType)
	}
	if l.Image == "" {
		l.Image = models.DefaultListingImage
	}
	return l
}

// draftRow builds the row inserted for a validated draft. Status is always pending.
func draftRow(d models.ListingDraft, imageURL string, now time.Time) *models.ListingRow {
	listingType := d.ListingType
	if listingType == "" {
		listingType = models.ListingSale
	}
	row := &models.ListingRow{
		Title:        d.Title,
		Description:  d.Description,
		Price:        *d.Price,
		PricePeriod:  string(models.PeriodFor(listingType)),
		Location:     d.Location,
		PropertyType: d.PropertyType,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		ListingType:  string(listingType),
		Status:       string(models.StatusPending),
		DealerName:   d.Agent,
		DealerID:     d.DealerID,
		ImageURL:     imageURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if d.Sqft != nil {
		sqft := *d.Sqft
		row.Sqft = &sqft
	}
	return row
}

// patchColumns maps the set fields of a patch onto remote column names.
// Changing the listing type also changes the price period.
func patchColumns(p models.ListingPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Location != nil {
		cols["location"] = strings.TrimSpace(*p.Location)
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.ListingType != nil {
		cols["listing_type"] = string(*p.ListingType)
		cols["price_period"] = string(models.PeriodFor(*p.ListingType))
	}
	if p.PropertyType != nil {
		cols["property_type"] = *p.PropertyType
	}
	if p.Bedrooms != nil {
		cols["bedrooms"] = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		cols["bathrooms"] = *p.Bathrooms
	}
	if p.Sqft != nil {
		cols["sqft"] = *p.Sqft
	}
	if p.Agent != nil {
		cols["dealer_name"] = *p.Agent
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Image != nil {
		cols["image_url"] = *p.Image
	}
	return cols
}
