package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"finance-tracker/internal/config"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBCryptCost        = 12
	DefaultMinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72

	specialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// ErrPasswordPolicy is wrapped by every policy violation so callers can map
// them to one validation response.
var ErrPasswordPolicy = errors.New("password policy violation")

var (
	ErrPasswordEmpty       = policyError("password cannot be empty")
	ErrPasswordTooShort    = policyError("password is too short")
	ErrPasswordTooLong     = policyError(fmt.Sprintf("password must not exceed %d bytes", MaxPasswordLength))
	ErrPasswordNoUppercase = policyError("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase = policyError("password must contain at least one lowercase letter")
	ErrPasswordNoNumber    = policyError("password must contain at least one number")
	ErrPasswordNoSpecial   = policyError("password must contain at least one special character")
)

func policyError(msg string) error {
	return fmt.Errorf("%w: %s", ErrPasswordPolicy, msg)
}

type characterRule struct {
	matches func(rune) bool
	err     error
}

// PasswordService applies the configured password policy and hashes with bcrypt.
type PasswordService struct {
	cost      int
	minLength int
	rules     []characterRule
}

func NewPasswordService(cfg config.SecurityConfig) PasswordServiceInterface {
	cost := cfg.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBCryptCost
	}

	minLength := cfg.PasswordMinLength
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}

	var rules []characterRule
	if cfg.RequireUppercase {
		rules = append(rules, characterRule{matches: unicode.IsUpper, err: ErrPasswordNoUppercase})
	}
	if cfg.RequireLowercase {
		rules = append(rules, characterRule{matches: unicode.IsLower, err: ErrPasswordNoLowercase})
	}
	if cfg.RequireNumbers {
		rules = append(rules, characterRule{matches: unicode.IsDigit, err: ErrPasswordNoNumber})
	}
	if cfg.RequireSpecialChars {
		rules = append(rules, characterRule{
			matches: func(r rune) bool { return strings.ContainsRune(specialCharacters, r) },
			err:     ErrPasswordNoSpecial,
		})
	}

	return &PasswordService{cost: cost, minLength: minLength, rules: rules}
}

// ValidatePassword returns the first policy violation, checked in a fixed order:
// emptiness, length, then the enabled character classes.
func (ps *PasswordService) ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrPasswordEmpty
	case len([]rune(password)) < ps.minLength:
		return fmt.Errorf("%w (minimum %d characters)", ErrPasswordTooShort, ps.minLength)
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}

	for _, rule := range ps.rules {
		if !strings.ContainsFunc(password, rule.matches) {
			return rule.err
		}
	}
	return nil
}

func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword reports whether password matches the bcrypt hash.
func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
