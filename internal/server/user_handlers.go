package server

import (
	"github.com/gofiber/fiber/v2"
)

// AdminListUsers handles GET /api/admin/users?search=
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	users, err := s.userService.List(c.UserContext(), viewer(c), c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
