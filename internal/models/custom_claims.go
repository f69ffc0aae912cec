package models

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims is the payload of both token kinds. Subject and UserID carry
// the same user id; Email is only present on access tokens.
type CustomClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`
}

// OwnerID parses the user id the token was issued for.
func (c *CustomClaims) OwnerID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id claim: %w", err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user id claim: nil uuid")
	}
	return id, nil
}

func (c *CustomClaims) IsAccess() bool {
	return c.TokenType == TokenTypeAccess
}
