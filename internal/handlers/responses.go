package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/validation"

	"github.com/labstack/echo/v4"
)

// Handlers report failures through two helpers only:
//
//   - SendError for client and business errors (4xx). The status follows the code.
//   - SendSystemError for storage and unexpected errors (500). The cause is
//     logged with the trace ID and never sent to the client.
//
// Validation failures go through sendValidationError so field details are
// formatted the same way everywhere.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.HTTPStatus(), errorResponse)
}

// SendSystemError wraps a system error with generic message and logs the internal error
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(errors.SystemInternalError, traceID)
	slog.Default().ErrorContext(c.Request().Context(), "request failed",
		"error", err,
		"trace_id", traceID,
		"method", c.Request().Method,
		"path", c.Path(),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}

func sendValidationError(c echo.Context, err error) error {
	details := validation.FormatErrors(err)
	if len(details) == 0 {
		details = []string{err.Error()}
	}
	return SendError(c, errors.ValidationGeneral, errors.WithDetails(details...))
}

// bindAndValidate decodes the request into req and runs the registered
// validator. A non-nil response error means the error was already written.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		if bodyTooLarge(err) {
			return false, SendError(c, errors.ValidationBodyTooLarge)
		}
		return false, SendError(c, errors.ValidationGeneral, errors.WithDetails(bindErrorDetail(err)))
	}
	if err := c.Validate(req); err != nil {
		return false, sendValidationError(c, err)
	}
	return true, nil
}

func bodyTooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return stderrors.Is(err, echo.ErrStatusRequestEntityTooLarge) || stderrors.As(err, &maxBytes)
}

// bindErrorDetail names the offending field when the decoder reports one.
func bindErrorDetail(err error) string {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case stderrors.As(err, &typeErr) && typeErr.Field != "":
		return typeErr.Field + ": " + expectedKind(typeErr.Type)
	case stderrors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	default:
		return "Invalid request body"
	}
}

func expectedKind(t reflect.Type) string {
	if t == nil {
		return "has the wrong type"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.String:
		return "must be a string"
	case reflect.Bool:
		return "must be a boolean"
	case reflect.Slice, reflect.Array:
		return "must be an array"
	default:
		return "has the wrong type"
	}
}
