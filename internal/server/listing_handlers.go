package server

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"estatehub/internal/models"
	"estatehub/internal/query"
	"estatehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListListings handles GET /api/listings
// Query: tab=buy|rent, view=admin, plus the filters location, type, price,
// bedrooms, search, status, listingType and agent.
func (s *Server) ListListings(c *fiber.Ctx) error {
	tab, err := query.ParseTab(c.Query("tab"))
	if err != nil {
		return respondError(c, err)
	}

	var raw query.RawCriteria
	if err := c.QueryParser(&raw); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid query parameters"))
	}
	criteria, err := query.ParseCriteria(raw)
	if err != nil {
		return respondError(c, err)
	}

	listings := s.listingService.Browse(c.UserContext(), viewer(c), service.BrowseRequest{
		Tab:       tab,
		Criteria:  criteria,
		AdminView: c.Query("view") == "admin",
	})
	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    len(listings),
	})
}

// GetListing handles GET /api/listings/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	listing, err := s.listingService.Get(c.UserContext(), viewer(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// CreateListing handles POST /api/listings
// Accepts JSON, or multipart/form-data with an optional "image" file.
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var (
		draft models.ListingDraft
		err   error
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		draft, err = s.draftFromForm(c)
		if err != nil {
			return respondError(c, err)
		}
	} else if err := parseBody(c, &draft); err != nil {
		return nil
	}

	id, err := s.listingService.Submit(c.UserContext(), viewer(c), draft)
	if id == "" && err != nil {
		return respondError(c, err)
	}
	return respondMutation(c, err, fiber.StatusCreated, fiber.Map{
		"id":     id,
		"status": models.StatusPending,
	})
}

// draftFromForm reads a listing draft from a multipart form.
func (s *Server) draftFromForm(c *fiber.Ctx) (models.ListingDraft, error) {
	draft := models.ListingDraft{
		Title:        c.FormValue("title"),
		Location:     c.FormValue("location"),
		ListingType:  models.ListingType(c.FormValue("listingType")),
		PropertyType: c.FormValue("type"),
		Agent:        c.FormValue("agent"),
		Description:  c.FormValue("description"),
		ImageURL:     c.FormValue("image"),
	}

	var bad []string
	if v := strings.TrimSpace(c.FormValue("price")); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			draft.Price = &p
		} else {
			bad = append(bad, "price")
		}
	}
	for name, dst := range map[string]*int{"bedrooms": &draft.Bedrooms, "bathrooms": &draft.Bathrooms} {
		if v := strings.TrimSpace(c.FormValue(name)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				bad = append(bad, name)
				continue
			}
			*dst = n
		}
	}
	if v := strings.TrimSpace(c.FormValue("sqft")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			draft.Sqft = &n
		} else {
			bad = append(bad, "sqft")
		}
	}
	if len(bad) > 0 {
		return draft, models.NewValidationError(fmt.Sprintf("invalid number in %s", strings.Join(bad, ", ")), bad...)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		// No file part; the draft may still carry an image URL.
		return draft, nil
	}
	f, err := fh.Open()
	if err != nil {
		return draft, models.NewValidationError("Failed to read uploaded image", "image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return draft, models.NewValidationError("Failed to read uploaded image", "image")
	}
	draft.ImageUpload = &models.ImageUpload{Filename: fh.Filename, Data: data}
	return draft, nil
}

// UpdateListing handles PUT /api/listings/:id
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	var patch models.ListingPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}
	err = s.listingService.Edit(c.UserContext(), viewer(c), id, patch)
	return respondMutation(c, err, fiber.StatusOK, fiber.Map{"id": id})
}

// DeleteListing handles DELETE /api/listings/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	err = s.listingService.Remove(c.UserContext(), viewer(c), id)
	return respondMutation(c, err, fiber.StatusOK, fiber.Map{"message": "Listing deleted"})
}

// DealerDashboard handles GET /api/dealer/dashboard
func (s *Server) DealerDashboard(c *fiber.Ctx) error {
	dash, err := s.listingService.DealerDashboard(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dash)
}

// AdminOverview handles GET /api/admin/overview
func (s *Server) AdminOverview(c *fiber.Ctx) error {
	summary, err := s.listingService.Overview(c.UserContext(), viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// ApproveListing handles POST /api/admin/listings/:id/approve
func (s *Server) ApproveListing(c *fiber.Ctx) error {
	return s.moderate(c, service.DecisionApprove)
}

// RejectListing handles POST /api/admin/listings/:id/reject
func (s *Server) RejectListing(c *fiber.Ctx) error {
	return s.moderate(c, service.DecisionReject)
}

func (s *Server) moderate(c *fiber.Ctx, decision string) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	err = s.listingService.Moderate(c.UserContext(), viewer(c), id, decision)
	status := models.StatusApproved
	if decision == service.DecisionReject {
		status = models.StatusRejected
	}
	return respondMutation(c, err, fiber.StatusOK, fiber.Map{"id": id, "status": status})
}
