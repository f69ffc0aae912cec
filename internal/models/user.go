package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxFailedLoginAttempts is the lockout threshold used when none is configured.
const MaxFailedLoginAttempts = 5

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserEmailRequired   = errors.New("email is required")
	ErrUserEmailInvalid    = errors.New("invalid email format")
	ErrUserNameRequired    = errors.New("name is required")
	ErrUserSurnameRequired = errors.New("surname is required")
)

// User owns categories and transactions. Balance caches the sum of the
// user's signed transaction amounts and only moves through balance deltas.
type User struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name                string          `gorm:"type:varchar(100);not null" json:"name"`
	Surname             string          `gorm:"type:varchar(100);not null" json:"surname"`
	Email               string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string          `gorm:"type:varchar(255);not null" json:"-"`
	Balance             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Image               *string         `gorm:"type:varchar(500)" json:"image"`
	FailedLoginAttempts int             `gorm:"default:0" json:"-"`
	LockedAt            *time.Time      `gorm:"index" json:"locked_at,omitempty"`
	LastLoginAt         *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`

	Categories        []Category         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Transactions      []Transaction      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	RefreshTokens     []RefreshToken     `gorm:"foreignKey:UserID" json:"-"`
	BlacklistedTokens []BlacklistedToken `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	stampIdentity(&u.ID, &u.CreatedAt)
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	return u.Validate()
}

// BeforeUpdate validates full-model saves. Column updates such as balance
// deltas, image changes and lockout counters pass a map and are not checked.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if _, columnUpdate := tx.Statement.Dest.(map[string]interface{}); columnUpdate {
		return nil
	}
	return u.Validate()
}

func (u *User) Validate() error {
	switch {
	case strings.TrimSpace(u.Email) == "":
		return ErrUserEmailRequired
	case !emailPattern.MatchString(u.Email):
		return ErrUserEmailInvalid
	case strings.TrimSpace(u.Name) == "":
		return ErrUserNameRequired
	case strings.TrimSpace(u.Surname) == "":
		return ErrUserSurnameRequired
	}
	return nil
}

func (u *User) HasAvatar() bool {
	return u.Image != nil && *u.Image != ""
}

func (u *User) IsLocked() bool {
	return u.LockedAt != nil
}

// RegisterFailedLogin counts a wrong password and reports whether this
// attempt locked the account.
func (u *User) RegisterFailedLogin(maxAttempts int, at time.Time) bool {
	if maxAttempts <= 0 {
		maxAttempts = MaxFailedLoginAttempts
	}
	u.FailedLoginAttempts++
	if u.IsLocked() || u.FailedLoginAttempts < maxAttempts {
		return false
	}
	u.LockedAt = &at
	return true
}
