package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrMissingSecret = errors.New("jwt signing secret is not configured")
)

// SessionTTL is the lifetime of every issued session token.
const SessionTTL = time.Hour

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// Claims represents JWT claims
type Claims struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	UserType   string `json:"user_type"`
	Role       string `json:"role"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the data a session token is minted from.
type Subject struct {
	UserID     uint
	Email      string
	UserType   string
	Role       string
	Position   string
	Department string
}

// JWTManager handles JWT token operations
type JWTManager struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager. An empty secret is refused.
func NewJWTManager(config JWTConfig) (*JWTManager, error) {
	if config.Secret == "" {
		return nil, ErrMissingSecret
	}
	if config.Expiry <= 0 {
		config.Expiry = SessionTTL
	}
	return &JWTManager{config: config, now: time.Now}, nil
}

// GenerateAccessToken signs a session token for s and returns it with its expiry.
func (j *JWTManager) GenerateAccessToken(s Subject) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.config.Expiry)

	claims := Claims{
		UserID:     s.UserID,
		Email:      s.Email,
		UserType:   s.UserType,
		Role:       s.Role,
		Position:   s.Position,
		Department: s.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
			Subject:   s.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.config.Secret), nil
	}, jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
