package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrUnlinkedAccount is returned when an account is saved without a valid identity.
var ErrUnlinkedAccount = errors.New("account must reference an admin or professor")

// User is a login account. It owns no personal data itself; RefID/UserType
// point at the Admin or Professor row that does.
type User struct {
	ID           uint         `gorm:"column:user_id;primaryKey" json:"user_id"`
	RefID        uint         `gorm:"not null;uniqueIndex:idx_users_identity" json:"ref_id"`
	UserType     IdentityKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_users_identity" json:"user_type"`
	Email        string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"column:password;not null" json:"-"`
	Role         string       `gorm:"type:varchar(30);not null" json:"role"`
	Status       string       `gorm:"type:varchar(20);not null" json:"status"`
	ResetToken   *string      `gorm:"column:reset_token;type:varchar(64);index" json:"-"`
	ResetExpires *time.Time   `gorm:"column:reset_expires" json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// NewUser builds the account mirrored from the identity ref points at.
func NewUser(ref IdentityRef, email, passwordHash, role, status string) *User {
	return &User{
		RefID:        ref.ID,
		UserType:     ref.Kind,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       status,
	}
}

// BeforeCreate refuses accounts that point at nothing.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Identity().IsZero() {
		return ErrUnlinkedAccount
	}
	return nil
}

// Identity returns the typed reference to the account's identity row.
func (u *User) Identity() IdentityRef {
	return IdentityRef{Kind: u.UserType, ID: u.RefID}
}

// HasValidResetToken reports whether token matches an unexpired reset request.
func (u *User) HasValidResetToken(token string, now time.Time) bool {
	if u.ResetToken == nil || u.ResetExpires == nil || token == "" {
		return false
	}
	return *u.ResetToken == token && now.Before(*u.ResetExpires)
}

// Admin is the identity behind ADMIN accounts.
type Admin struct {
	ID           uint      `gorm:"column:admin_id;primaryKey" json:"admin_id"`
	FirstName    string    `gorm:"type:varchar(100);not null" json:"first_name"`
	MiddleName   string    `gorm:"type:varchar(100)" json:"middle_name"`
	LastName     string    `gorm:"type:varchar(100);not null" json:"last_name"`
	ExtendedName string    `gorm:"type:varchar(20)" json:"extended_name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;not null" json:"-"`
	Status       string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Admin
func (Admin) TableName() string {
	return "admin"
}

// FullName is "First Middle Last Ext" with empty parts skipped.
func (a *Admin) FullName() string {
	return joinName(a.FirstName, a.MiddleName, a.LastName, a.ExtendedName)
}

func (a *Admin) Profile() Profile {
	return Profile{FullName: a.FullName()}
}
