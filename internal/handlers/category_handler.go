package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles the caller's categories
type CategoryHandler struct {
	categoryService services.CategoryServiceInterface
}

func NewCategoryHandler(categoryService services.CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListCategories returns the caller's categories
// @Summary List categories
// @Tags Categories
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.CategoriesResponse "Caller's categories"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categories, err := h.categoryService.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.CategoriesResponse{
		Status:     true,
		Message:    "Categories retrieved successfully",
		Categories: categories,
	})
}

// CreateCategory adds a category for the caller
// @Summary Create category
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CategoryRequest true "Category name"
// @Success 201 {object} dto.CategoryResponse "Category created successfully"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_002 - Name is required"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_004 - Name exceeds 200 characters"
// @Failure 413 {object} errors.ErrorResponse "VALIDATION_009 - Request body is too large"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	category, err := h.categoryService.Create(c.Request().Context(), userID, req.Name)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.CategoryResponse{
		Status:   true,
		Message:  "Category created successfully",
		Category: category,
	})
}

// UpdateCategory renames one of the caller's categories
// @Summary Rename category
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Category ID (UUID)"
// @Param request body dto.CategoryRequest true "New name"
// @Success 200 {object} dto.CategoryResponse "Category updated successfully"
// @Failure 400 {object} errors.ErrorResponse "CATEGORY_002 - Invalid category ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "CATEGORY_001 - Category not found"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_002 - Name is required"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_004 - Name exceeds 200 characters"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return SendError(c, errors.CategoryInvalidID)
	}

	var req dto.CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	category, err := h.categoryService.Update(c.Request().Context(), categoryID, userID, req.Name)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.CategoryResponse{
		Status:   true,
		Message:  "Category updated successfully",
		Category: category,
	})
}

// DeleteCategory removes a category. Its transactions are removed with it
// and their sum is taken off the caller's balance.
// @Summary Delete category
// @Description Delete a category together with its transactions and reverse their effect on the balance
// @Tags Categories
// @Security BearerAuth
// @Produce json
// @Param id path string true "Category ID (UUID)"
// @Success 200 {object} dto.CategoryDeletedResponse "Category deleted successfully"
// @Failure 400 {object} errors.ErrorResponse "CATEGORY_002 - Invalid category ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "CATEGORY_001 - Category not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return SendError(c, errors.CategoryInvalidID)
	}

	deletion, err := h.categoryService.Delete(c.Request().Context(), categoryID, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.CategoryDeletedResponse{
		Status:              true,
		Message:             "Category deleted successfully",
		RemovedTransactions: deletion.RemovedTransactions,
	})
}

func (h *CategoryHandler) handleError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrCategoryNotFound):
		return SendError(c, errors.CategoryNotFound)
	case stderrors.Is(err, services.ErrUserNotFound):
		return SendError(c, errors.UserNotFound)
	case stderrors.Is(err, models.ErrCategoryNameRequired):
		return SendError(c, errors.ValidationRequiredField, errors.WithDetails("name: is required"))
	case stderrors.Is(err, models.ErrCategoryNameTooLong):
		return SendError(c, errors.ValidationOutOfRange, errors.WithDetails("name: must not exceed 200 characters"))
	default:
		return SendSystemError(c, err)
	}
}
