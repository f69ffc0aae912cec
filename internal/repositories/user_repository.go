package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepositoryInterface {
	return &userRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user with a zero balance; the stored email is lower cased.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("create user: nil user")
	}
	user.Email = normalizeEmail(user.Email)
	user.Balance = decimal.Zero

	err := r.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrUserAlreadyExists
	default:
		return fmt.Errorf("create user: %w", err)
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.take(ctx, "email = ?", normalizeEmail(email))
}

func (r *userRepository) take(ctx context.Context, cond string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateImage sets the avatar URL, or clears it when image is nil.
func (r *userRepository) UpdateImage(ctx context.Context, userID uuid.UUID, image *string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("image", image)
	if res.Error != nil {
		return fmt.Errorf("update user image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateFailedLoginAttempts persists the lockout state carried by user.
func (r *userRepository) UpdateFailedLoginAttempts(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("update login attempts: nil user")
	}
	return r.updateLoginState(ctx, user.ID, map[string]any{
		"failed_login_attempts": user.FailedLoginAttempts,
		"locked_at":             user.LockedAt,
	})
}

func (r *userRepository) RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.updateLoginState(ctx, userID, map[string]any{
		"failed_login_attempts": 0,
		"locked_at":             nil,
		"last_login_at":         at,
	})
}

func (r *userRepository) updateLoginState(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("update login state: %w", err)
	}
	return nil
}

// ListIDs returns up to limit user IDs in key order, strictly after the given
// cursor. uuid.Nil starts from the beginning.
func (r *userRepository) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Order("id").Limit(limit)
	if after != uuid.Nil {
		q = q.Where("id > ?", after)
	}

	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}
