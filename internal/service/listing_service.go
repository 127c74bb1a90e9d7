package service

import (
	"context"
	"fmt"
	"strings"

	"estatehub/internal/auth"
	"estatehub/internal/models"
	"estatehub/internal/query"
)

// Catalog is the subset of the catalog store the listing service drives.
type Catalog interface {
	Snapshot() []models.Listing
	Get(id string) (models.Listing, bool)
	Create(ctx context.Context, draft models.ListingDraft) (string, error)
	Update(ctx context.Context, id string, patch models.ListingPatch) error
	SetStatus(ctx context.Context, id string, status models.ListingStatus) error
	Delete(ctx context.Context, id string) error
}

// Moderation decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// BrowseRequest is a parsed listing search.
type BrowseRequest struct {
	Tab      query.Tab
	Criteria query.Criteria
	// AdminView asks for the moderation view. It is honored for admins only.
	AdminView bool
}

// DealerDashboard is an agent's own listings plus their tallies.
type DealerDashboard struct {
	Listings []models.Listing `json:"listings"`
	Summary  query.Summary    `json:"summary"`
}

// ListingService applies caller permissions on top of the catalog and the
// query engine.
type ListingService struct {
	catalog Catalog
}

// NewListingService creates a listing service over catalog.
func NewListingService(catalog Catalog) *ListingService {
	return &ListingService{catalog: catalog}
}

// Audience picks the query audience for viewer. Only admins that ask for it
// get the admin view; everyone else, signed in or not, gets the public one.
func Audience(viewer *auth.Identity, tab query.Tab, adminView bool) query.Audience {
	if adminView && viewer != nil && viewer.IsAdmin() {
		return query.Admin()
	}
	return query.Public(tab)
}

// Browse returns the listings viewer may see that match req, newest first.
func (s *ListingService) Browse(_ context.Context, viewer *auth.Identity, req BrowseRequest) []models.Listing {
	aud := Audience(viewer, req.Tab, req.AdminView)
	return query.VisibleListings(s.catalog.Snapshot(), aud, req.Criteria)
}

// Get returns listing id. Non-admins only see approved listings and their own.
func (s *ListingService) Get(_ context.Context, viewer *auth.Identity, id string) (models.Listing, error) {
	l, ok := s.catalog.Get(id)
	if !ok {
		return models.Listing{}, models.NewNotFoundError("Listing", id)
	}
	if l.Status == models.StatusApproved || canManage(viewer, l) {
		return l, nil
	}
	return models.Listing{}, models.NewNotFoundError("Listing", id)
}

// Submit creates a pending listing on behalf of an agent or admin. Agents
// always submit as themselves; admins may file for another agent account by
// setting the dealer name and id.
func (s *ListingService) Submit(ctx context.Context, viewer *auth.Identity, draft models.ListingDraft) (string, error) {
	if viewer == nil {
		return "", models.NewUnauthorizedError("Sign in to submit a listing")
	}
	if !viewer.CanSubmit() {
		return "", models.NewForbiddenError("Only agents can submit listings")
	}

	draft.Agent = strings.TrimSpace(draft.Agent)
	if !viewer.IsAdmin() {
		if (draft.Agent != "" && draft.Agent != viewer.Name) || (draft.DealerID != 0 && draft.DealerID != viewer.ID) {
			return "", models.NewForbiddenError("Agents can only submit their own listings")
		}
		draft.Agent = viewer.Name
		draft.DealerID = viewer.ID
	}
	if draft.Agent == "" {
		draft.Agent = viewer.Name
	}
	if draft.DealerID == 0 && draft.Agent == viewer.Name {
		draft.DealerID = viewer.ID
	}
	return s.catalog.Create(ctx, draft)
}

// Edit applies patch to listing id for its owning agent or an admin. Admin
// edits go straight to the remote store, which decides NOT_FOUND.
func (s *ListingService) Edit(ctx context.Context, viewer *auth.Identity, id string, patch models.ListingPatch) error {
	if err := s.authorizeWrite(viewer, id); err != nil {
		return err
	}
	if patch.Agent != nil && !viewer.IsAdmin() && strings.TrimSpace(*patch.Agent) != viewer.Name {
		return models.NewForbiddenError("Agents cannot reassign listings")
	}
	return s.catalog.Update(ctx, id, patch)
}

// Remove deletes listing id for its owning agent or an admin. An admin
// removing an id the remote store does not hold is a no-op.
func (s *ListingService) Remove(ctx context.Context, viewer *auth.Identity, id string) error {
	if err := s.authorizeWrite(viewer, id); err != nil {
		return err
	}
	return s.catalog.Delete(ctx, id)
}

// Moderate approves or rejects a pending listing. Admins only.
func (s *ListingService) Moderate(ctx context.Context, viewer *auth.Identity, id, decision string) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	var status models.ListingStatus
	switch decision {
	case DecisionApprove:
		status = models.StatusApproved
	case DecisionReject:
		status = models.StatusRejected
	default:
		return models.NewValidationError(fmt.Sprintf("unknown decision %q", decision), "decision")
	}
	return s.catalog.SetStatus(ctx, id, status)
}

// DealerDashboard returns the caller's own listings in every status.
func (s *ListingService) DealerDashboard(_ context.Context, viewer *auth.Identity) (*DealerDashboard, error) {
	if viewer == nil {
		return nil, models.NewUnauthorizedError("Sign in to view your listings")
	}
	if !viewer.CanSubmit() {
		return nil, models.NewForbiddenError("Only agents have a dealer dashboard")
	}
	own := make([]models.Listing, 0)
	for _, l := range query.VisibleListings(s.catalog.Snapshot(), query.Admin(), query.Criteria{}) {
		if ownsListing(viewer, l) {
			own = append(own, l)
		}
	}
	return &DealerDashboard{Listings: own, Summary: query.Summarize(own)}, nil
}

// Overview tallies the whole catalog for the admin dashboard.
func (s *ListingService) Overview(_ context.Context, viewer *auth.Identity) (query.Summary, error) {
	if err := requireAdmin(viewer); err != nil {
		return query.Summary{}, err
	}
	return query.Summarize(s.catalog.Snapshot()), nil
}

// ActiveCount is the number of approved listings.
func (s *ListingService) ActiveCount() int {
	return query.Summarize(s.catalog.Snapshot()).Approved
}

// authorizeWrite checks that viewer may change listing id. Non-admins need the
// listing in the snapshot to prove ownership.
func (s *ListingService) authorizeWrite(viewer *auth.Identity, id string) error {
	if viewer == nil {
		return models.NewUnauthorizedError("Sign in to manage listings")
	}
	if viewer.IsAdmin() {
		return nil
	}
	l, ok := s.catalog.Get(id)
	if !ok {
		return models.NewNotFoundError("Listing", id)
	}
	if !canManage(viewer, l) {
		return models.NewForbiddenError("You can only manage your own listings")
	}
	return nil
}

func canManage(viewer *auth.Identity, l models.Listing) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || (viewer.Role == auth.RoleAgent && ownsListing(viewer, l))
}

// ownsListing matches on the submitting account id. Display names are not
// unique and never grant ownership.
func ownsListing(viewer *auth.Identity, l models.Listing) bool {
	return l.DealerID != 0 && l.DealerID == viewer.ID
}

func requireAdmin(viewer *auth.Identity) error {
	if viewer == nil {
		return models.NewUnauthorizedError("Sign in required")
	}
	if !viewer.IsAdmin() {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
