// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingStatus is the moderation state of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ListingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether moderation may move a listing from s to next.
// Only pending listings move, and only to a terminal state.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

// ListingType is the transaction intent of a listing.
type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	return t == ListingSale || t == ListingRent
}

// PricePeriod makes the unit of Listing.Price explicit.
type PricePeriod string

const (
	PriceTotal   PricePeriod = "total"
	PriceMonthly PricePeriod = "monthly"
)

// PeriodFor returns the price period implied by a listing type.
func PeriodFor(t ListingType) PricePeriod {
	if t == ListingRent {
		return PriceMonthly
	}
	return PriceTotal
}

// DefaultListingImage is served for listings stored without an image.
const DefaultListingImage = "/modern-house.png"

// Listing is the in-memory catalog view of a property.
type Listing struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Location     string        `json:"location"`
	Price        float64       `json:"price"`
	PricePeriod  PricePeriod   `json:"pricePeriod"`
	ListingType  ListingType   `json:"listingType"`
	PropertyType string        `json:"type"`
	Bedrooms     int           `json:"bedrooms"`
	Bathrooms    int           `json:"bathrooms"`
	Sqft         *int          `json:"sqft,omitempty"`
	Status       ListingStatus `json:"status"`
	Agent        string        `json:"agent"`
	// DealerID is the user id of the submitting account. Zero for listings
	// that no agent account owns.
	DealerID    uint      `json:"dealerId,omitempty"`
	DateAdded   time.Time `json:"dateAdded"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image"`
}

// ImageUpload is a not-yet-hosted image attached to a submission.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ListingDraft is the submission payload for a new listing. Status is not
// part of a draft: every new listing starts pending.
type ListingDraft struct {
	Title        string       `json:"title" validate:"required,notblank"`
	Location     string       `json:"location" validate:"required,notblank"`
	Price        *float64     `json:"price" validate:"required,gte=0"`
	ListingType  ListingType  `json:"listingType" validate:"omitempty,oneof=sale rent"`
	PropertyType string       `json:"type"`
	Bedrooms     int          `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int          `json:"bathrooms" validate:"gte=0"`
	Sqft         *int         `json:"sqft" validate:"omitempty,gte=0"`
	Agent        string       `json:"agent"`
	DealerID     uint         `json:"dealerId"`
	Description  string       `json:"description"`
	ImageURL     string       `json:"image"`
	ImageUpload  *ImageUpload `json:"-"`
}

// ListingPatch is a partial edit. Nil fields mean "no change". Identity,
// creation date and moderation status cannot be edited through a patch.
type ListingPatch struct {
	Title        *string      `json:"title,omitempty" validate:"omitempty,notblank"`
	Location     *string      `json:"location,omitempty" validate:"omitempty,notblank"`
	Price        *float64     `json:"price,omitempty" validate:"omitempty,gte=0"`
	ListingType  *ListingType `json:"listingType,omitempty" validate:"omitempty,oneof=sale rent"`
	PropertyType *string      `json:"type,omitempty"`
	Bedrooms     *int         `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms    *int         `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	Sqft         *int         `json:"sqft,omitempty" validate:"omitempty,gte=0"`
	Agent        *string      `json:"agent,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Image        *string      `json:"image,omitempty"`
}

// ListingRow is the persisted shape of a listing in the remote store.
// Column names are snake_case and differ from the in-memory model.
type ListingRow struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Price        float64   `gorm:"not null" json:"price"`
	PricePeriod  string    `gorm:"column:price_period;not null;default:total" json:"price_period"`
	Location     string    `gorm:"not null;index" json:"location"`
	PropertyType string    `gorm:"column:property_type;index" json:"property_type"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Sqft         *int      `json:"sqft"`
	ListingType  string    `gorm:"column:listing_type;not null;default:sale;index" json:"listing_type"`
	Status       string    `gorm:"not null;default:pending;index" json:"status"`
	DealerName   string    `gorm:"column:dealer_name;index" json:"dealer_name"`
	DealerID     uint      `gorm:"column:dealer_id;index" json:"dealer_id"`
	ImageURL     string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName pins the remote table name.
func (ListingRow) TableName() string {
	return "properties"
}

// BeforeCreate assigns the opaque identifier on insert.
func (r *ListingRow) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
