package server

import (
	"estatehub/internal/models"
	"estatehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateMessageRequest is the body of PATCH /api/admin/messages/:id.
type UpdateMessageRequest struct {
	Status models.MessageStatus `json:"status"`
}

// CreateInquiry handles POST /api/inquiries
func (s *Server) CreateInquiry(c *fiber.Ctx) error {
	var req service.InquiryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.SendInquiry(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      msg.ID,
		"message": "Thanks, your message has been sent.",
	})
}

// AdminListMessages handles GET /api/admin/messages?status=unread|read|replied|all
func (s *Server) AdminListMessages(c *fiber.Ctx) error {
	messages, err := s.messageService.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// AdminUpdateMessage handles PATCH /api/admin/messages/:id
func (s *Server) AdminUpdateMessage(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	var req UpdateMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.messageService.SetStatus(c.UserContext(), id, req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "status": req.Status})
}

// AdminDeleteMessage handles DELETE /api/admin/messages/:id
func (s *Server) AdminDeleteMessage(c *fiber.Ctx) error {
	id, err := routeID(c)
	if err != nil {
		return nil
	}
	if err := s.messageService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}
