package server

import (
	"github.com/gofiber/fiber/v2"
)

// RecordPageView handles POST /api/analytics/page-view
func (s *Server) RecordPageView(c *fiber.Ctx) error {
	s.analyticsService.RecordPageView(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordPropertyView handles POST /api/analytics/property-view/:id
// Views of listings the catalog does not hold are ignored.
func (s *Server) RecordPropertyView(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	if _, ok := s.catalog.Get(id); ok {
		s.analyticsService.RecordPropertyView(c.UserContext())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminAnalytics handles GET /api/admin/analytics
func (s *Server) AdminAnalytics(c *fiber.Ctx) error {
	return c.JSON(s.analyticsService.Summary(c.UserContext()))
}
