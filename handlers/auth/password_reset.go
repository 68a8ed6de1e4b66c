package auth

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	authutil "github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/crypto"
	"github.com/usched/usched-api/utils/response"
	"gorm.io/gorm"
)

const (
	MsgResetRequested = "If that email exists, a reset link has been sent."
	MsgResetInvalid   = "Password reset token is invalid or has expired."
)

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents a password reset with token
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ForgotPassword handles POST /api/password-reset/request. The reply is the
// same whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return response.BadRequest(c, "Email is required.")
	}

	ctx := c.UserContext()
	db := h.db.WithContext(ctx)

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if !database.IsNotFound(err) {
			slog.Error("reset lookup failed", "error", err)
		}
		return response.Message(c, fiber.StatusOK, MsgResetRequested, nil)
	}

	token, err := crypto.NewResetToken()
	if err != nil {
		slog.Error("failed to generate reset token", "error", err)
		return response.Message(c, fiber.StatusOK, MsgResetRequested, nil)
	}
	expires := h.now().Add(ResetTokenTTL)

	if err := db.Model(&user).Updates(map[string]interface{}{
		"reset_token":   token,
		"reset_expires": expires,
	}).Error; err != nil {
		slog.Error("failed to store reset token", "user_id", user.ID, "error", err)
		return response.Message(c, fiber.StatusOK, MsgResetRequested, nil)
	}

	if h.mailer == nil {
		slog.Warn("no mailer configured, reset link not sent", "user_id", user.ID)
	} else {
		profile := h.profiles.ResolveProfile(ctx, &user)
		if err := h.mailer.SendPasswordResetEmail(user.Email, profile.FullName, token); err != nil {
			slog.Error("failed to send reset email", "user_id", user.ID, "error", err)
		}
	}

	return response.Message(c, fiber.StatusOK, MsgResetRequested, nil)
}

// ResetPassword handles POST /api/password-reset/reset
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Token and new password are required.")
	}
	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long.")
	}

	db := h.db.WithContext(c.UserContext())

	var user model.User
	if err := db.Where("reset_token = ?", req.Token).First(&user).Error; err != nil {
		if !database.IsNotFound(err) {
			slog.Error("reset token lookup failed", "error", err)
			return response.InternalServerError(c, "")
		}
		return response.BadRequest(c, MsgResetInvalid)
	}
	if !user.HasValidResetToken(req.Token, h.now()) {
		return response.BadRequest(c, MsgResetInvalid)
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password":      hash,
			"reset_token":   nil,
			"reset_expires": nil,
		}).Error; err != nil {
			return err
		}
		if user.UserType == model.IdentityAdmin {
			return tx.Model(&model.Admin{}).Where("admin_id = ?", user.RefID).Update("password", hash).Error
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to reset password", "user_id", user.ID, "error", err)
		return response.InternalServerError(c, "Failed to update password")
	}

	slog.Info("password reset", "user_id", user.ID)
	return response.Message(c, fiber.StatusOK, "Password has been reset successfully.", nil)
}
