package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{db: db}
}

// Create inserts the transaction and adds its signed amount to the owner's balance.
// The referenced category must belong to the same user; it is share-locked so a
// concurrent category delete cannot miss the new row.
func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if transaction == nil {
		return errors.New("transaction cannot be nil")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedCategory(
			tx.Clauses(clause.Locking{Strength: "SHARE"}),
			transaction.CategoryID,
			transaction.UserID,
		); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		return ApplyBalanceDelta(tx, transaction.UserID, transaction.Amount)
	})
}

func (r *transactionRepository) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error) {
	return findOwnedTransaction(r.db.WithContext(ctx), id, ownerID)
}

// Update replaces date, amount, type and category. The old amount is reversed
// and the new one applied as two ordered balance deltas within one database transaction.
func (r *transactionRepository) Update(ctx context.Context, id, ownerID uuid.UUID, changes TransactionChanges) (*TransactionRevision, error) {
	var revision *TransactionRevision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findOwnedTransaction(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, ownerID)
		if err != nil {
			return err
		}

		if _, err := findOwnedCategory(
			tx.Clauses(clause.Locking{Strength: "SHARE"}),
			changes.CategoryID,
			existing.UserID,
		); err != nil {
			return err
		}

		next := *existing
		next.Date = changes.Date
		next.Amount = changes.Amount
		next.Type = changes.Type
		next.CategoryID = changes.CategoryID
		next.UpdatedAt = time.Now()
		if err := next.Validate(); err != nil {
			return err
		}

		if err := ApplyBalanceDelta(tx, existing.UserID, existing.Amount.Neg()); err != nil {
			return err
		}

		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"date":        next.Date,
				"amount":      next.Amount,
				"type":        next.Type,
				"category_id": next.CategoryID,
				"updated_at":  next.UpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		if err := ApplyBalanceDelta(tx, existing.UserID, next.Amount); err != nil {
			return err
		}

		revision = &TransactionRevision{Previous: existing, Updated: &next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return revision, nil
}

// Delete reverses the transaction's amount on the owner's balance, removes the
// row and returns it as it was read under the lock.
func (r *transactionRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error) {
	var deleted *models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findOwnedTransaction(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, ownerID)
		if err != nil {
			return err
		}

		if err := ApplyBalanceDelta(tx, existing.UserID, existing.Amount.Neg()); err != nil {
			return err
		}

		if err := tx.Delete(&models.Transaction{}, "id = ?", existing.ID).Error; err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}

		deleted = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// ListForUser returns every transaction of the user in insertion order.
func (r *transactionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	transactions := make([]models.Transaction, 0)

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, nil
}

// ListByDateRange returns the user's transactions dated within the range, both ends inclusive.
func (r *transactionRepository) ListByDateRange(ctx context.Context, dateRange models.DateRange) ([]models.Transaction, error) {
	transactions := make([]models.Transaction, 0)

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", dateRange.UserID, dateRange.Start, dateRange.End).
		Order("date ASC, created_at ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to get transactions by date range: %w", err)
	}

	return transactions, nil
}

func (r *transactionRepository) CountByDateRange(ctx context.Context, dateRange models.DateRange) (int64, error) {
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND date BETWEEN ? AND ?", dateRange.UserID, dateRange.Start, dateRange.End).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// SumByType groups the range by transaction type. Types without rows are absent.
func (r *transactionRepository) SumByType(ctx context.Context, dateRange models.DateRange) ([]models.TypeTotal, error) {
	totals := make([]models.TypeTotal, 0, 2)

	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("type, SUM(amount) AS amount").
		Where("user_id = ? AND date BETWEEN ? AND ?", dateRange.UserID, dateRange.Start, dateRange.End).
		Group("type").
		Order("type ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	for i := range totals {
		totals[i].Amount = totals[i].Amount.Round(2)
	}

	return totals, nil
}

func findOwnedTransaction(db *gorm.DB, id, ownerID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ? AND user_id = ?", id, ownerID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}
