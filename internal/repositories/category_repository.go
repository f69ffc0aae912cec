package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryDeletion reports what a cascading category delete removed.
type CategoryDeletion struct {
	CategoryID          uuid.UUID
	OwnerID             uuid.UUID
	RemovedTransactions int64
	BalanceDelta        decimal.Decimal
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepositoryInterface {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category == nil {
		return errors.New("category cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetForOwner returns ErrCategoryNotFound both for missing ids and for ids owned by someone else.
func (r *categoryRepository) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Category, error) {
	return findOwnedCategory(r.db.WithContext(ctx), id, ownerID)
}

func (r *categoryRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	categories := make([]models.Category, 0)

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Rename(ctx context.Context, id, ownerID uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateCategoryName(name); err != nil {
		return nil, err
	}

	var category *models.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findOwnedCategory(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, ownerID)
		if err != nil {
			return err
		}

		if err := tx.Model(found).Update("name", name).Error; err != nil {
			return fmt.Errorf("failed to rename category: %w", err)
		}

		found.Name = name
		category = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// Delete removes a category and all of its transactions, reversing their
// contribution to the owner's balance, in one database transaction. The sum is
// scoped to the category owner, never to whoever issued the request.
func (r *categoryRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (*CategoryDeletion, error) {
	var deletion *CategoryDeletion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findOwnedCategory(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, ownerID)
		if err != nil {
			return err
		}

		// Row locks on the transactions keep concurrent updates from moving
		// rows out of the category between the sum and the delete.
		var transactions []models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("category_id = ? AND user_id = ?", category.ID, category.UserID).
			Find(&transactions).Error; err != nil {
			return fmt.Errorf("failed to read category transactions: %w", err)
		}

		total := decimal.Zero
		for _, t := range transactions {
			total = total.Add(t.Amount)
		}
		total = total.Round(2)

		if err := ApplyBalanceDelta(tx, category.UserID, total.Neg()); err != nil {
			return err
		}

		removed := tx.Where("category_id = ? AND user_id = ?", category.ID, category.UserID).
			Delete(&models.Transaction{})
		if removed.Error != nil {
			return fmt.Errorf("failed to delete category transactions: %w", removed.Error)
		}

		if err := tx.Delete(&models.Category{}, "id = ?", category.ID).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}

		deletion = &CategoryDeletion{
			CategoryID:          category.ID,
			OwnerID:             category.UserID,
			RemovedTransactions: removed.RowsAffected,
			BalanceDelta:        total.Neg(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deletion, nil
}

func findOwnedCategory(db *gorm.DB, id, ownerID uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ? AND user_id = ?", id, ownerID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}
