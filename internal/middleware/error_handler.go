package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "Errors rendered by the fallback error handler, by code, route and status",
	},
	[]string{"code", "endpoint", "status"},
)

// statusCodes translates statuses raised by echo itself or by middleware.
var statusCodes = map[int]errors.ErrorCode{
	http.StatusBadRequest:            errors.ValidationGeneral,
	http.StatusUnprocessableEntity:   errors.ValidationGeneral,
	http.StatusRequestEntityTooLarge: errors.ValidationBodyTooLarge,
	http.StatusUnauthorized:          errors.AuthMissingToken,
	http.StatusNotFound:              errors.SystemRouteNotFound,
	http.StatusMethodNotAllowed:      errors.SystemMethodNotAllowed,
	http.StatusTooManyRequests:       errors.SystemRateLimitExceeded,
	http.StatusInternalServerError:   errors.SystemInternalError,
	http.StatusServiceUnavailable:    errors.SystemServiceUnavailable,
}

func codeForStatus(status int) errors.ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return errors.SystemUnexpectedError
}

// CustomHTTPErrorHandler renders whatever error reaches echo in the standard
// envelope. Handlers write their own failures, so this sees routing errors,
// middleware errors and anything returned unhandled.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = "unknown"
	}

	resp, status := renderError(err, traceID)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request().Context(), level, "request failed",
		"trace_id", traceID,
		"error_code", resp.Error.Code,
		"status", status,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)

	apiErrorsTotal.WithLabelValues(resp.Error.Code, c.Path(), strconv.Itoa(status)).Inc()

	if sendErr := c.JSON(status, resp); sendErr != nil {
		slog.Error("failed to write error response", "trace_id", traceID, "error", sendErr)
	}
}

func renderError(err error, traceID string) (*errors.ErrorResponse, int) {
	var (
		httpErr   *echo.HTTPError
		fieldErrs validator.ValidationErrors
		maxBytes  *http.MaxBytesError
	)

	switch {
	case stderrors.As(err, &fieldErrs):
		resp := errors.NewErrorResponse(errors.ValidationGeneral, traceID,
			errors.WithDetails(validation.FormatErrors(fieldErrs)...))
		return resp, resp.HTTPStatus()

	case stderrors.As(err, &maxBytes):
		resp := errors.NewErrorResponse(errors.ValidationBodyTooLarge, traceID,
			errors.WithDetails(fmt.Sprintf("request body exceeds %d bytes", maxBytes.Limit)))
		return resp, resp.HTTPStatus()

	case stderrors.As(err, &httpErr):
		var opts []errors.ErrorOption
		if msg, ok := httpErr.Message.(string); ok && msg != http.StatusText(httpErr.Code) {
			opts = append(opts, errors.WithMessage(msg))
		}
		return errors.NewErrorResponse(codeForStatus(httpErr.Code), traceID, opts...), httpErr.Code
	}

	return errors.NewErrorResponse(errors.SystemInternalError, traceID), http.StatusInternalServerError
}
