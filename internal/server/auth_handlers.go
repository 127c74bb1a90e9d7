package server

import (
	"time"

	"estatehub/internal/auth"
	"estatehub/internal/cache"
	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      auth.Identity `json:"user"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	id, err := s.userService.Signup(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	s.analyticsService.RecordRegistration(c.UserContext())

	resp, err := s.issue(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	id, err := s.userService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	resp, err := s.issue(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Logout handles POST /api/auth/logout
// The token is revoked until it would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	id := viewer(c)
	exp, ok := middleware.TokenExpiry(c)
	if id != nil && ok && id.SessionID != "" {
		if err := cache.RevokeToken(c.UserContext(), s.redis, id.SessionID, time.Until(exp)); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation unavailable", "error", err)
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) issue(id auth.Identity) (*AuthResponse, error) {
	session, err := s.tokens.Issue(id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	id.SessionID = session.ID
	return &AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: id}, nil
}
