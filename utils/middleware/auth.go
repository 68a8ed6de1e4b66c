package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/response"
)

// Messages shared with the dashboard handler.
const (
	MsgNoToken      = "No token provided."
	MsgInvalidToken = "Invalid token."
)

// AuthMiddleware handles JWT authentication. It is stateless: a valid
// signature and expiry are enough, nothing is looked up.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate validates the bearer token and stores its claims on the context.
// It returns the response already written on failure.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) (*auth.Claims, bool, error) {
	token := BearerToken(c)
	if token == "" {
		return nil, false, response.Unauthorized(c, MsgNoToken)
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, false, response.Unauthorized(c, MsgInvalidToken)
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("user_role", claims.Role)
	return claims, true, nil
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := m.Authenticate(c); !ok {
			return err
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires specific user role
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	r, ok := c.Locals("user_role").(string)
	return r, ok
}
