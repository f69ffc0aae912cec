package services

import (
	"context"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

type statisticsService struct {
	repo repositories.TransactionRepositoryInterface
}

func NewStatisticsService(repo repositories.TransactionRepositoryInterface) StatisticsServiceInterface {
	return &statisticsService{repo: repo}
}

// GetStatistics sums the user's transactions per type over an inclusive date
// range. A type with no transactions in range is omitted rather than zero-filled.
func (s *statisticsService) GetStatistics(ctx context.Context, userID uuid.UUID, start, end models.Date) ([]models.TypeTotal, error) {
	dateRange := models.DateRange{UserID: userID, Start: start, End: end}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	return s.repo.SumByType(ctx, dateRange)
}
