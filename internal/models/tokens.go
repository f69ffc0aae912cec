package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is one issued refresh token. Only its SHA-256 hash is stored.
// Rotation revokes the presented token, so each one is usable once.
type RefreshToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string     `gorm:"type:varchar(255);not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (*RefreshToken) TableName() string { return "refresh_tokens" }

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// UsableAt reports whether the token may still be exchanged at t.
func (rt *RefreshToken) UsableAt(t time.Time) bool {
	return !rt.IsRevoked() && t.Before(rt.ExpiresAt)
}

func (rt *RefreshToken) IsValid() bool {
	return rt.UsableAt(time.Now())
}

func (rt *RefreshToken) BeforeCreate(*gorm.DB) error {
	stampIdentity(&rt.ID, &rt.CreatedAt)
	return nil
}

// BlacklistedToken denies an access token by JTI after logout. The row is
// only needed until the token would have expired on its own.
type BlacklistedToken struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JTI           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"jti"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	BlacklistedAt time.Time `gorm:"not null" json:"blacklisted_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (*BlacklistedToken) TableName() string { return "blacklisted_tokens" }

func (bt *BlacklistedToken) BeforeCreate(*gorm.DB) error {
	stampIdentity(&bt.ID, &bt.BlacklistedAt)
	return nil
}

func stampIdentity(id *uuid.UUID, created *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		*created = time.Now().UTC()
	}
}
