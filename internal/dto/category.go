package dto

import "finance-tracker/internal/models"

// CategoryRequest is the body of category create and rename.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type CategoryResponse struct {
	Status   bool             `json:"status"`
	Message  string           `json:"message"`
	Category *models.Category `json:"category"`
}

type CategoriesResponse struct {
	Status     bool              `json:"status"`
	Message    string            `json:"message"`
	Categories []models.Category `json:"categories"`
}

// CategoryDeletedResponse reports what the cascade removed.
type CategoryDeletedResponse struct {
	Status              bool   `json:"status"`
	Message             string `json:"message"`
	RemovedTransactions int64  `json:"removed_transactions"`
}
