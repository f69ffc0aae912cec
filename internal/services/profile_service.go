package services

import (
	"context"
	"errors"
	"fmt"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type profileService struct {
	userRepo repositories.UserRepositoryInterface
	audit    AuditServiceInterface
}

func NewProfileService(userRepo repositories.UserRepositoryInterface, audit AuditServiceInterface) ProfileServiceInterface {
	return &profileService{
		userRepo: userRepo,
		audit:    audit,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *profileService) GetActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	return s.audit.GetUserActivity(ctx, userID, offset, limit)
}
