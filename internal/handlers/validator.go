package handlers

import (
	"finance-tracker/internal/validation"

	"github.com/labstack/echo/v4"
)

// NewValidator returns the shared validator with the domain rules registered.
func NewValidator() echo.Validator {
	return validation.GetValidator()
}
