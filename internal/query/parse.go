package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"estatehub/internal/models"
)

// RawCriteria is filter input as it arrives from a query string.
type RawCriteria struct {
	Location     string `query:"location"`
	PropertyType string `query:"type"`
	Price        string `query:"price"`
	Bedrooms     string `query:"bedrooms"`
	Search       string `query:"search"`
	Status       string `query:"status"`
	ListingType  string `query:"listingType"`
	Agent        string `query:"agent"`
}

// ParseTab accepts "", "buy" and "rent".
func ParseTab(raw string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(raw))); t {
	case TabNone, TabBuy, TabRent:
		return t, nil
	}
	return TabNone, models.NewValidationError(fmt.Sprintf("unknown tab %q", raw), "tab")
}

// ParsePriceRange parses "<min>-<max>" or "<min>+". Empty input means no filter.
func ParsePriceRange(raw string) (*PriceRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	invalid := models.NewValidationError(fmt.Sprintf("malformed price range %q", raw), "price")

	if minStr, ok := strings.CutSuffix(raw, "+"); ok {
		lo, err := parseBound(minStr)
		if err != nil {
			return nil, invalid
		}
		return &PriceRange{Min: lo}, nil
	}

	minStr, maxStr, ok := strings.Cut(raw, "-")
	if !ok {
		return nil, invalid
	}
	lo, err := parseBound(minStr)
	if err != nil {
		return nil, invalid
	}
	hi, err := parseBound(maxStr)
	if err != nil || hi < lo {
		return nil, invalid
	}
	return &PriceRange{Min: lo, Max: hi, HasMax: true}, nil
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bound out of range: %v", v)
	}
	return v, nil
}

// ParseBedrooms parses a bedroom count. The sentinel "4" means four or more;
// any other count matches exactly.
func ParseBedrooms(raw string) (*Bedrooms, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(raw, "+"))
	if err != nil || n < 0 {
		return nil, models.NewValidationError(fmt.Sprintf("malformed bedroom count %q", raw), "bedrooms")
	}
	if n == BedroomsSentinel {
		return &Bedrooms{Count: n, AtLeast: true}, nil
	}
	if strings.HasSuffix(raw, "+") {
		return nil, models.NewValidationError(fmt.Sprintf("only %d+ is supported as a minimum", BedroomsSentinel), "bedrooms")
	}
	return &Bedrooms{Count: n}, nil
}

// ParseCriteria validates raw filter input. "all" is accepted for status and
// listing type and means no filter.
func ParseCriteria(raw RawCriteria) (Criteria, error) {
	c := Criteria{
		Location:     strings.TrimSpace(raw.Location),
		PropertyType: strings.TrimSpace(raw.PropertyType),
		Search:       strings.TrimSpace(raw.Search),
		Agent:        strings.TrimSpace(raw.Agent),
	}

	var err error
	if c.Price, err = ParsePriceRange(raw.Price); err != nil {
		return Criteria{}, err
	}
	if c.Bedrooms, err = ParseBedrooms(raw.Bedrooms); err != nil {
		return Criteria{}, err
	}

	if s := strings.ToLower(strings.TrimSpace(raw.Status)); s != "" && s != "all" {
		c.Status = models.ListingStatus(s)
		if !c.Status.Valid() {
			return Criteria{}, models.NewValidationError(fmt.Sprintf("unknown status %q", raw.Status), "status")
		}
	}
	if t := strings.ToLower(strings.TrimSpace(raw.ListingType)); t != "" && t != "all" {
		c.ListingType = models.ListingType(t)
		if !c.ListingType.Valid() {
			return Criteria{}, models.NewValidationError(fmt.Sprintf("unknown listing type %q", raw.ListingType), "listingType")
		}
	}
	return c, nil
}
