package middleware

import (
	"context"
	"strings"
	"time"

	"estatehub/internal/auth"
	"estatehub/internal/cache"
	"estatehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Fiber locals set by the auth middleware.
const (
	localUserID      = "userID"
	localIdentity    = "identity"
	localTokenExpiry = "tokenExpiry"
)

// TokenParser validates a session token and returns the identity it carries.
type TokenParser interface {
	Parse(token string) (auth.Identity, time.Time, error)
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
func AuthRequired(parser TokenParser, rdb *redis.Client) fiber.Handler {
	return authenticate(parser, rdb, true)
}

// OptionalAuth attaches the caller identity when a valid token is presented
// and lets anonymous requests through.
func OptionalAuth(parser TokenParser, rdb *redis.Client) fiber.Handler {
	return authenticate(parser, rdb, false)
}

func authenticate(parser TokenParser, rdb *redis.Client, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get("Authorization"))
		if tokenString == "" {
			if required {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			return c.Next()
		}

		id, expiresAt, err := parser.Parse(tokenString)
		if err != nil {
			if required {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			return c.Next()
		}

		if rdb != nil {
			revoked, err := cache.IsTokenRevoked(c.UserContext(), rdb, id.SessionID)
			if err == nil && revoked {
				if required {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
				return c.Next()
			}
		}

		c.Locals(localUserID, id.ID)
		c.Locals(localIdentity, id)
		c.Locals(localTokenExpiry, expiresAt)

		ctx := context.WithValue(c.UserContext(), UserIDKey, id.ID)
		c.SetUserContext(auth.WithIdentity(ctx, id))
		return c.Next()
	}
}

// RequireRole allows only callers with one of roles. Place it after AuthRequired.
func RequireRole(roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		if id == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Insufficient permissions"))
	}
}

// IdentityFrom returns the authenticated caller, or nil for anonymous requests.
func IdentityFrom(c *fiber.Ctx) *auth.Identity {
	if id, ok := c.Locals(localIdentity).(auth.Identity); ok {
		return &id
	}
	return nil
}

// TokenExpiry returns when the presented session token expires.
func TokenExpiry(c *fiber.Ctx) (time.Time, bool) {
	exp, ok := c.Locals(localTokenExpiry).(time.Time)
	return exp, ok
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
