package query

import "estatehub/internal/models"

// Summary counts listings by status and listing type.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	ForSale  int `json:"forSale"`
	ForRent  int `json:"forRent"`
}

// Summarize tallies listings.
func Summarize(listings []models.Listing) Summary {
	s := Summary{Total: len(listings)}
	for _, l := range listings {
		switch l.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusApproved:
			s.Approved++
		case models.StatusRejected:
			s.Rejected++
		}
		switch l.ListingType {
		case models.ListingSale:
			s.ForSale++
		case models.ListingRent:
			s.ForRent++
		}
	}
	return s
}
