package server

import (
	"errors"
	"strings"

	"estatehub/internal/auth"
	"estatehub/internal/middleware"
	"estatehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondError writes err with the status its code maps to. Wrapped causes
// are logged, never sent to the client.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		middleware.Logger.WarnContext(c.UserContext(), appErr.Message, "code", appErr.Code, "error", appErr.Err)
	}
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// respondMutation answers a catalog write. A write that landed but whose
// follow-up reload failed is reported as 202 with a warning instead of an
// error, because retrying it would repeat the write.
func respondMutation(c *fiber.Ctx, err error, okStatus int, body fiber.Map) error {
	if err != nil && !models.IsCode(err, models.CodePartialFailure) {
		return respondError(c, err)
	}
	if body == nil {
		body = fiber.Map{}
	}
	status := okStatus
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "catalog write applied but reload failed", "error", err)
		status = fiber.StatusAccepted
		body["warning"] = "Saved, but the catalog could not be refreshed yet. It will catch up shortly."
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes the request body into v, writing a 400 on failure.
func parseBody(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// viewer returns the caller's identity, or nil for anonymous requests.
func viewer(c *fiber.Ctx) *auth.Identity {
	return middleware.IdentityFrom(c)
}

// requireUpgrade rejects plain HTTP requests on websocket routes.
func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// routeID reads and trims the :id route parameter.
func routeID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID", "id"))
		return "", errResponseWritten
	}
	return id, nil
}
