package auth

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	authutil "github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/response"
)

const (
	MsgCredentialsRequired = "Username and password are required."
	MsgInvalidCredentials  = "Invalid credentials."
)

// LoginRequest is the login body; username is the account email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Username))
	if email == "" || req.Password == "" {
		return response.BadRequest(c, MsgCredentialsRequired)
	}

	ip := c.IP()
	ctx := c.UserContext()

	var user model.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !database.IsNotFound(err) {
			slog.Error("login lookup failed", "error", err)
			return response.InternalServerError(c, "")
		}
		authutil.BurnComparison(req.Password)
		h.bruteForceProtection.RecordFailedAttempt(ctx, ip)
		return response.Unauthorized(c, MsgInvalidCredentials)
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.bruteForceProtection.RecordFailedAttempt(ctx, ip)
		return response.Unauthorized(c, MsgInvalidCredentials)
	}

	h.bruteForceProtection.RecordSuccessfulAttempt(ctx, ip)

	profile := h.profiles.ResolveProfile(ctx, &user)
	token, _, err := h.jwtManager.GenerateAccessToken(authutil.Subject{
		UserID:     user.ID,
		Email:      user.Email,
		UserType:   string(user.UserType),
		Role:       user.Role,
		Position:   profile.Position,
		Department: profile.Department,
	})
	if err != nil {
		slog.Error("failed to sign session token", "user_id", user.ID, "error", err)
		return response.InternalServerError(c, "Failed to generate access token")
	}

	slog.Info("login succeeded", "user_id", user.ID, "role", user.Role)
	return response.Message(c, fiber.StatusOK, "Login successful.", fiber.Map{
		"token": token,
		"user": SessionUser{
			UserID:   user.ID,
			Email:    user.Email,
			UserType: string(user.UserType),
			Role:     user.Role,
			Status:   user.Status,
			Profile:  profile,
		},
	})
}

// Dashboard handles GET /api/dashboard and echoes the session claims.
func (h *AuthHandler) Dashboard(c *fiber.Ctx) error {
	claims, ok, err := h.authMiddleware.Authenticate(c)
	if !ok {
		return err
	}
	return response.Message(c, fiber.StatusOK, "Welcome to the Dashboard!", fiber.Map{"user": claims})
}

// Logout handles POST /api/logout. Sessions are stateless; the client drops its token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return response.Message(c, fiber.StatusOK, "Sign out successful.", nil)
}
