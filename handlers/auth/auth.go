package auth

import (
	"context"
	"time"

	"github.com/usched/usched-api/model"
	authutil "github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/middleware"
	"gorm.io/gorm"
)

// ResetTokenTTL is how long a mailed reset link stays valid.
const ResetTokenTTL = 60 * time.Minute

// ProfileResolver produces the display data behind an account.
// *identity.Service satisfies it.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, user *model.User) model.Profile
}

// ResetMailer delivers password reset links. *services.EmailService satisfies it.
type ResetMailer interface {
	SendPasswordResetEmail(toEmail, userName, token string) error
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	authMiddleware       *middleware.AuthMiddleware
	bruteForceProtection *middleware.BruteForceProtection
	profiles             ProfileResolver
	mailer               ResetMailer
	now                  func() time.Time
}

// NewAuthHandler creates a new auth handler. bruteForceProtection and
// mailer may be nil.
func NewAuthHandler(
	db *gorm.DB,
	jwtManager *authutil.JWTManager,
	bruteForceProtection *middleware.BruteForceProtection,
	profiles ProfileResolver,
	mailer ResetMailer,
) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		authMiddleware:       middleware.NewAuthMiddleware(jwtManager),
		bruteForceProtection: bruteForceProtection,
		profiles:             profiles,
		mailer:               mailer,
		now:                  time.Now,
	}
}

// SessionUser is the account summary returned on login.
type SessionUser struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	model.Profile
}
