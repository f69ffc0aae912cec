package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"
	"finance-tracker/internal/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransactionHandler handles transaction CRUD and statistics
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
	statisticsService  services.StatisticsServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(
	transactionService services.TransactionServiceInterface,
	statisticsService services.StatisticsServiceInterface,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		statisticsService:  statisticsService,
	}
}

// ListTransactions returns the caller's transactions. With start_date and
// end_date the list is limited to that inclusive range.
// @Summary List transactions
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param start_date query string false "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {object} dto.TransactionsResponse "Caller's transactions"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_006 - Invalid date or range"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var transactions []models.Transaction
	if c.QueryParam("start_date") != "" || c.QueryParam("end_date") != "" {
		start, end, ok, err := parseDateRange(c)
		if !ok {
			return err
		}
		transactions, err = h.transactionService.ListByDateRange(c.Request().Context(), userID, start, end)
		if err != nil {
			return h.handleError(c, err)
		}
	} else {
		transactions, err = h.transactionService.ListForUser(c.Request().Context(), userID)
		if err != nil {
			return SendSystemError(c, err)
		}
	}

	return c.JSON(http.StatusOK, dto.TransactionsResponse{
		Status:       true,
		Message:      "Transactions retrieved successfully",
		Transactions: transactions,
	})
}

// CreateTransaction records an income or expense for the caller
// @Summary Create transaction
// @Description Record a transaction. The amount's sign follows the type (1 income, 2 expense) and the balance is updated in the same commit.
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.TransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse "Transaction created successfully"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body or validation error"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_007 - Category does not exist"
// @Failure 422 {object} errors.ErrorResponse "TRANSACTION_002 - Invalid transaction amount"
// @Failure 422 {object} errors.ErrorResponse "TRANSACTION_003 - Invalid transaction type"
// @Failure 413 {object} errors.ErrorResponse "VALIDATION_009 - Request body is too large"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	input, ok, err := parseTransactionRequest(c)
	if !ok {
		return err
	}

	transaction, err := h.transactionService.Create(c.Request().Context(), userID, input)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.TransactionResponse{
		Status:      true,
		Message:     "Transaction created successfully",
		Transaction: transaction,
	})
}

// GetTransaction returns one of the caller's transactions
// @Summary Get transaction by ID
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Success 200 {object} dto.TransactionResponse "Transaction details"
// @Failure 400 {object} errors.ErrorResponse "TRANSACTION_004 - Invalid transaction ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return SendError(c, errors.TransactionInvalidID)
	}

	transaction, err := h.transactionService.Get(c.Request().Context(), transactionID, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.TransactionResponse{
		Status:      true,
		Message:     "Transaction retrieved successfully",
		Transaction: transaction,
	})
}

// UpdateTransaction replaces every field of one of the caller's transactions
// @Summary Update transaction
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Param request body dto.TransactionRequest true "Replacement transaction"
// @Success 200 {object} dto.TransactionResponse "Transaction updated successfully"
// @Failure 400 {object} errors.ErrorResponse "TRANSACTION_004 - Invalid transaction ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body or validation error"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_007 - Category does not exist"
// @Failure 422 {object} errors.ErrorResponse "TRANSACTION_002 - Invalid transaction amount"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return SendError(c, errors.TransactionInvalidID)
	}

	input, ok, err := parseTransactionRequest(c)
	if !ok {
		return err
	}

	transaction, err := h.transactionService.Update(c.Request().Context(), transactionID, userID, input)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.TransactionResponse{
		Status:      true,
		Message:     "Transaction updated successfully",
		Transaction: transaction,
	})
}

// DeleteTransaction removes one of the caller's transactions
// @Summary Delete transaction
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Success 200 {object} dto.MessageResponse "Transaction deleted successfully"
// @Failure 400 {object} errors.ErrorResponse "TRANSACTION_004 - Invalid transaction ID format"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return SendError(c, errors.TransactionInvalidID)
	}

	if err := h.transactionService.Delete(c.Request().Context(), transactionID, userID); err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{
		Status:  true,
		Message: "Transaction deleted successfully",
	})
}

// GetStatistics sums the caller's transactions in range by type. Types with
// no transactions in range are absent from the result.
// @Summary Get statistics
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {object} dto.StatisticsResponse "Totals per type"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_006 - Invalid date or range"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/get/statistics [get]
func (h *TransactionHandler) GetStatistics(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	start, end, ok, err := parseDateRange(c)
	if !ok {
		return err
	}

	statistics, err := h.statisticsService.GetStatistics(c.Request().Context(), userID, start, end)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(http.StatusOK, dto.StatisticsResponse{
		Status:     true,
		Message:    "Statistics retrieved successfully",
		StartDate:  start,
		EndDate:    end,
		Statistics: statistics,
	})
}

func (h *TransactionHandler) handleError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrTransactionNotFound):
		return SendError(c, errors.TransactionNotFound)
	case stderrors.Is(err, services.ErrUnknownCategory):
		return SendError(c, errors.ValidationUnknownCategory, errors.WithDetails("category_id: category not found"))
	case stderrors.Is(err, services.ErrAmountOutOfRange):
		return SendError(c, errors.TransactionInvalidAmount, errors.WithDetails("amount: "+err.Error()))
	case stderrors.Is(err, models.ErrInvalidTransactionType):
		return SendError(c, errors.TransactionInvalidType, errors.WithDetails("type: "+err.Error()))
	case stderrors.Is(err, models.ErrDateRequired), stderrors.Is(err, models.ErrCategoryRequired):
		return SendError(c, errors.ValidationRequiredField, errors.WithDetails(err.Error()))
	case stderrors.Is(err, models.ErrInvalidDateRange):
		return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrUserNotFound):
		return SendError(c, errors.UserNotFound)
	default:
		return SendSystemError(c, err)
	}
}

// parseTransactionRequest binds and validates the body and converts it to a
// service input. When ok is false the error response has been written.
func parseTransactionRequest(c echo.Context) (models.TransactionInput, bool, error) {
	var req dto.TransactionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return models.TransactionInput{}, false, err
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return models.TransactionInput{}, false, SendError(c, errors.ValidationInvalidDate, errors.WithDetails("date: "+err.Error()))
	}

	amount, err := validation.ParseAmount(req.Amount.String())
	if err != nil {
		return models.TransactionInput{}, false, SendError(c, errors.TransactionInvalidAmount, errors.WithDetails("amount: "+err.Error()))
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return models.TransactionInput{}, false, SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("category_id: must be a valid UUID"))
	}

	return models.TransactionInput{
		Date:       date,
		Amount:     amount,
		Type:       models.TransactionType(req.Type),
		CategoryID: categoryID,
	}, true, nil
}

// parseDateRange reads the required start_date and end_date query parameters.
func parseDateRange(c echo.Context) (models.Date, models.Date, bool, error) {
	var query dto.DateRangeQuery
	if ok, err := bindAndValidate(c, &query); !ok {
		return models.Date{}, models.Date{}, false, err
	}

	start, err := models.ParseDate(query.StartDate)
	if err != nil {
		return models.Date{}, models.Date{}, false, SendError(c, errors.ValidationInvalidDate, errors.WithDetails("start_date: "+err.Error()))
	}
	end, err := models.ParseDate(query.EndDate)
	if err != nil {
		return models.Date{}, models.Date{}, false, SendError(c, errors.ValidationInvalidDate, errors.WithDetails("end_date: "+err.Error()))
	}

	if start.After(end) {
		return models.Date{}, models.Date{}, false, SendError(c, errors.ValidationInvalidDate, errors.WithDetails(models.ErrInvalidDateRange.Error()))
	}

	return start, end, true, nil
}
