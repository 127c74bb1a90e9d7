// Package query derives the audience-appropriate view of the catalog. Every
// function here is pure: inputs are never mutated and input order is kept.
package query

import (
	"strings"

	"estatehub/internal/models"
)

// Mode selects the visibility rule.
type Mode string

const (
	// ModePublic shows approved listings only.
	ModePublic Mode = "public"
	// ModeAdmin shows every listing regardless of status.
	ModeAdmin Mode = "admin"
)

// Tab is the public browse tab.
type Tab string

const (
	TabNone Tab = ""
	TabBuy  Tab = "buy"
	TabRent Tab = "rent"
)

// Audience is who is looking and through which tab. Tab only applies in public mode.
type Audience struct {
	Mode Mode
	Tab  Tab
}

// Public returns a public audience browsing tab.
func Public(tab Tab) Audience {
	return Audience{Mode: ModePublic, Tab: tab}
}

// Admin returns the unrestricted audience.
func Admin() Audience {
	return Audience{Mode: ModeAdmin}
}

// PriceRange is an inclusive price window. Without an upper bound it is open-ended.
type PriceRange struct {
	Min    float64
	Max    float64
	HasMax bool
}

// Contains reports whether price falls inside the range.
func (r PriceRange) Contains(price float64) bool {
	if price < r.Min {
		return false
	}
	return !r.HasMax || price <= r.Max
}

// BedroomsSentinel is the bedroom filter value that means "this many or more".
const BedroomsSentinel = 4

// Bedrooms matches an exact bedroom count, or a minimum for the sentinel.
type Bedrooms struct {
	Count   int
	AtLeast bool
}

// Matches reports whether n bedrooms satisfy the filter.
func (b Bedrooms) Matches(n int) bool {
	if b.AtLeast {
		return n >= b.Count
	}
	return n == b.Count
}

// Criteria are optional filters. Zero values mean "no filter". Bounds are
// assumed valid; use ParseCriteria at the boundary.
type Criteria struct {
	// Location is a case-insensitive substring of the listing location.
	Location string
	// PropertyType must equal the stored type exactly.
	PropertyType string
	Price        *PriceRange
	Bedrooms     *Bedrooms
	// Search is a case-insensitive substring of the title or the location.
	Search string
	// Status and ListingType restrict the admin view; empty means all.
	Status      models.ListingStatus
	ListingType models.ListingType
	// Agent must equal the dealer name exactly.
	Agent string
}

type predicate func(models.Listing) bool

// predicates builds the ordered predicate chain for one query.
func predicates(aud Audience, c Criteria) []predicate {
	var ps []predicate

	if aud.Mode != ModeAdmin {
		ps = append(ps, func(l models.Listing) bool { return l.Status == models.StatusApproved })

		switch aud.Tab {
		case TabBuy:
			ps = append(ps, func(l models.Listing) bool { return l.ListingType == models.ListingSale })
		case TabRent:
			ps = append(ps, func(l models.Listing) bool { return l.ListingType == models.ListingRent })
		}
	}

	if c.Location != "" {
		needle := strings.ToLower(c.Location)
		ps = append(ps, func(l models.Listing) bool {
			return strings.Contains(strings.ToLower(l.Location), needle)
		})
	}
	if c.PropertyType != "" {
		ps = append(ps, func(l models.Listing) bool { return l.PropertyType == c.PropertyType })
	}
	if c.Price != nil {
		r := *c.Price
		ps = append(ps, func(l models.Listing) bool { return r.Contains(l.Price) })
	}
	if c.Bedrooms != nil {
		b := *c.Bedrooms
		ps = append(ps, func(l models.Listing) bool { return b.Matches(l.Bedrooms) })
	}
	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		ps = append(ps, func(l models.Listing) bool {
			return strings.Contains(strings.ToLower(l.Title), needle) ||
				strings.Contains(strings.ToLower(l.Location), needle)
		})
	}
	if c.Status != "" {
		ps = append(ps, func(l models.Listing) bool { return l.Status == c.Status })
	}
	if c.ListingType != "" {
		ps = append(ps, func(l models.Listing) bool { return l.ListingType == c.ListingType })
	}
	if c.Agent != "" {
		ps = append(ps, func(l models.Listing) bool { return l.Agent == c.Agent })
	}
	return ps
}

// VisibleListings returns the listings in all that aud may see and that match
// every criterion, in their original order. The result is never nil.
func VisibleListings(all []models.Listing, aud Audience, c Criteria) []models.Listing {
	ps := predicates(aud, c)
	out := make([]models.Listing, 0, len(all))
next:
	for _, l := range all {
		for _, p := range ps {
			if !p(l) {
				continue next
			}
		}
		out = append(out, l)
	}
	return out
}
