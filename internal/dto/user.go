package dto

import (
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserResponse is the public view of a user. The password hash and lockout state never leave the server.
type UserResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Surname   string          `json:"surname"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	Image     *string         `json:"image"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Surname:   user.Surname,
		Email:     user.Email,
		Balance:   user.Balance.Round(2),
		Image:     user.Image,
		CreatedAt: user.CreatedAt,
	}
}

type ProfileResponse struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

type BalanceResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Balance decimal.Decimal `json:"balance"`
}

// ActivityResponse lists the caller's audit trail, newest first.
type ActivityResponse struct {
	Status     bool               `json:"status"`
	Message    string             `json:"message"`
	Activity   []*models.AuditLog `json:"activity"`
	Pagination PaginationInfo     `json:"pagination"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Total  int64 `json:"total"`
}

// MessageResponse is the bare success envelope.
type MessageResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
