package services

import (
	"errors"
	"strings"
	"testing"

	"finance-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func strictSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		BCryptCost:          bcrypt.MinCost,
		PasswordMinLength:   12,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireNumbers:      true,
		RequireSpecialChars: true,
	}
}

func TestValidatePassword_StrictPolicy(t *testing.T) {
	svc := NewPasswordService(strictSecurityConfig())

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "SecurePass123!@#", nil},
		{"empty", "", ErrPasswordEmpty},
		{"too short", "Short1!", ErrPasswordTooShort},
		{"over bcrypt limit", "Aa1!" + strings.Repeat("x", MaxPasswordLength), ErrPasswordTooLong},
		{"no uppercase", "securepass123!@#", ErrPasswordNoUppercase},
		{"no lowercase", "SECUREPASS123!@#", ErrPasswordNoLowercase},
		{"no number", "SecurePassword!@#", ErrPasswordNoNumber},
		{"no special", "SecurePassword123", ErrPasswordNoSpecial},
		{"length counts runes", "Пароль123!Ab", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrPasswordPolicy)
		})
	}
}

func TestValidatePassword_TooShortNamesMinimum(t *testing.T) {
	err := NewPasswordService(strictSecurityConfig()).ValidatePassword("Ab1!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum 12 characters")
}

func TestValidatePassword_ReportsFirstMissingClass(t *testing.T) {
	err := NewPasswordService(strictSecurityConfig()).ValidatePassword("nothingbutlowercase")
	assert.ErrorIs(t, err, ErrPasswordNoUppercase)
	assert.False(t, errors.Is(err, ErrPasswordNoNumber))
}

func TestValidatePassword_RelaxedPolicy(t *testing.T) {
	svc := NewPasswordService(config.SecurityConfig{
		BCryptCost:        bcrypt.MinCost,
		PasswordMinLength: 6,
	})

	assert.NoError(t, svc.ValidatePassword("simple"))
	assert.ErrorIs(t, svc.ValidatePassword("short"), ErrPasswordTooShort)
}

func TestNewPasswordService_DefaultsForZeroConfig(t *testing.T) {
	svc := NewPasswordService(config.SecurityConfig{}).(*PasswordService)

	assert.Equal(t, DefaultBCryptCost, svc.cost)
	assert.Equal(t, DefaultMinPasswordLength, svc.minLength)
	assert.Empty(t, svc.rules)
	assert.ErrorIs(t, svc.ValidatePassword("1234567"), ErrPasswordTooShort)
	assert.NoError(t, svc.ValidatePassword("12345678"))
}

func TestNewPasswordService_OutOfRangeCostFallsBack(t *testing.T) {
	svc := NewPasswordService(config.SecurityConfig{BCryptCost: bcrypt.MaxCost + 1}).(*PasswordService)
	assert.Equal(t, DefaultBCryptCost, svc.cost)
}

func TestHashPassword(t *testing.T) {
	svc := NewPasswordService(strictSecurityConfig())
	password := "SecurePass123!@#"

	t.Run("hash verifies and uses configured cost", func(t *testing.T) {
		hash, err := svc.HashPassword(password)
		require.NoError(t, err)
		assert.NotEqual(t, password, hash)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)

		assert.True(t, svc.ComparePassword(password, hash))
		assert.False(t, svc.ComparePassword("WrongPass123!@#", hash))
	})

	t.Run("salted hashes differ", func(t *testing.T) {
		first, err := svc.HashPassword(password)
		require.NoError(t, err)
		second, err := svc.HashPassword(password)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("policy violation is not hashed", func(t *testing.T) {
		hash, err := svc.HashPassword("weak")
		assert.ErrorIs(t, err, ErrPasswordPolicy)
		assert.Empty(t, hash)
	})
}

func TestComparePassword_MalformedHash(t *testing.T) {
	svc := NewPasswordService(strictSecurityConfig())
	assert.False(t, svc.ComparePassword("SecurePass123!@#", "not-a-bcrypt-hash"))
	assert.False(t, svc.ComparePassword("SecurePass123!@#", ""))
}
