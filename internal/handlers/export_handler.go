package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/export"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// ExportHandler streams the caller's transactions as a downloadable document
type ExportHandler struct {
	exportService services.ExportServiceInterface
}

func NewExportHandler(exportService services.ExportServiceInterface) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportExcel streams the caller's transactions in range as a spreadsheet
// @Summary Export transactions to Excel
// @Tags Export
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file "Spreadsheet attachment"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_006 - Invalid date or range"
// @Failure 422 {object} errors.ErrorResponse "EXPORT_001 - Too many transactions in range"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/export/excel [get]
func (h *ExportHandler) ExportExcel(c echo.Context) error {
	return h.export(c, export.FormatXLSX)
}

// ExportPDF streams the caller's transactions in range as a PDF report
// @Summary Export transactions to PDF
// @Tags Export
// @Security BearerAuth
// @Produce application/pdf
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file "PDF attachment"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_006 - Invalid date or range"
// @Failure 422 {object} errors.ErrorResponse "EXPORT_001 - Too many transactions in range"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/export/pdf [get]
func (h *ExportHandler) ExportPDF(c echo.Context) error {
	return h.export(c, export.FormatPDF)
}

// ExportFormat exports in any supported format named by the path.
// @Summary Export transactions
// @Tags Export
// @Security BearerAuth
// @Produce octet-stream
// @Param format path string true "Export format" Enums(excel, xlsx, pdf)
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file "Export attachment"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "EXPORT_002 - Unsupported export format"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_006 - Invalid date or range"
// @Failure 422 {object} errors.ErrorResponse "EXPORT_001 - Too many transactions in range"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions/export/{format} [get]
func (h *ExportHandler) ExportFormat(c echo.Context) error {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return SendError(c, errors.ExportBadFormat)
	}
	return h.export(c, format)
}

func (h *ExportHandler) export(c echo.Context, format export.Format) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	start, end, ok, err := parseDateRange(c)
	if !ok {
		return err
	}

	file, err := h.exportService.Export(c.Request().Context(), userID, start, end, format)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrExportTooLarge):
			return SendError(c, errors.ExportTooLarge, errors.WithDetails(err.Error()))
		case stderrors.Is(err, export.ErrUnsupportedFormat):
			return SendError(c, errors.ExportBadFormat)
		case stderrors.Is(err, models.ErrInvalidDateRange):
			return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
		}
		return SendSystemError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Blob(http.StatusOK, file.ContentType, file.Content)
}
