package errors

import "net/http"

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials ErrorCode = "AUTH_001"
	AuthMissingToken       ErrorCode = "AUTH_002"
	AuthExpiredToken       ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat ErrorCode = "AUTH_004"
	AuthAccountLocked      ErrorCode = "AUTH_005"
	AuthEmailTaken         ErrorCode = "AUTH_006"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral         ErrorCode = "VALIDATION_001"
	ValidationRequiredField   ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat   ErrorCode = "VALIDATION_003"
	ValidationOutOfRange      ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail    ErrorCode = "VALIDATION_005"
	ValidationInvalidDate     ErrorCode = "VALIDATION_006"
	ValidationUnknownCategory ErrorCode = "VALIDATION_007"
	ValidationInvalidImage    ErrorCode = "VALIDATION_008"
	ValidationBodyTooLarge    ErrorCode = "VALIDATION_009"
)

// Category error codes (CATEGORY_*)
const (
	CategoryNotFound  ErrorCode = "CATEGORY_001"
	CategoryInvalidID ErrorCode = "CATEGORY_002"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound      ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount ErrorCode = "TRANSACTION_002"
	TransactionInvalidType   ErrorCode = "TRANSACTION_003"
	TransactionInvalidID     ErrorCode = "TRANSACTION_004"
)

// User and avatar error codes (USER_*, AVATAR_*)
const (
	UserNotFound    ErrorCode = "USER_001"
	AvatarNotFound  ErrorCode = "AVATAR_001"
	AvatarTooLarge  ErrorCode = "AVATAR_002"
	ExportTooLarge  ErrorCode = "EXPORT_001"
	ExportBadFormat ErrorCode = "EXPORT_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemStorageError       ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
	SystemRouteNotFound      ErrorCode = "SYSTEM_007"
	SystemMethodNotAllowed   ErrorCode = "SYSTEM_008"
)

type definition struct {
	status  int
	message string
}

var catalog = map[ErrorCode]definition{
	AuthInvalidCredentials: {http.StatusUnauthorized, "Invalid email or password"},
	AuthMissingToken:       {http.StatusUnauthorized, "Authorization token is required"},
	AuthExpiredToken:       {http.StatusUnauthorized, "Authorization token has expired"},
	AuthInvalidTokenFormat: {http.StatusUnauthorized, "Invalid authorization token format"},
	AuthAccountLocked:      {http.StatusForbidden, "Account is locked"},
	AuthEmailTaken:         {http.StatusConflict, "A user with this email already exists"},

	ValidationGeneral:         {http.StatusUnprocessableEntity, "Validation failed"},
	ValidationRequiredField:   {http.StatusUnprocessableEntity, "Required field is missing"},
	ValidationInvalidFormat:   {http.StatusUnprocessableEntity, "Invalid field format"},
	ValidationOutOfRange:      {http.StatusUnprocessableEntity, "Field value is out of allowed range"},
	ValidationInvalidEmail:    {http.StatusUnprocessableEntity, "Invalid email address format"},
	ValidationInvalidDate:     {http.StatusUnprocessableEntity, "Invalid date format or range"},
	ValidationUnknownCategory: {http.StatusUnprocessableEntity, "The selected category does not exist"},
	ValidationInvalidImage:    {http.StatusUnprocessableEntity, "Invalid image data"},
	ValidationBodyTooLarge:    {http.StatusRequestEntityTooLarge, "Request body is too large"},

	// Malformed path ids are 400; absent or foreign resources are 404.
	CategoryNotFound:  {http.StatusNotFound, "Category not found"},
	CategoryInvalidID: {http.StatusBadRequest, "Invalid category ID format"},

	TransactionNotFound:      {http.StatusNotFound, "Transaction not found"},
	TransactionInvalidAmount: {http.StatusUnprocessableEntity, "Invalid transaction amount"},
	TransactionInvalidType:   {http.StatusUnprocessableEntity, "Invalid transaction type"},
	TransactionInvalidID:     {http.StatusBadRequest, "Invalid transaction ID format"},

	UserNotFound:    {http.StatusNotFound, "User not found"},
	AvatarNotFound:  {http.StatusNotFound, "No avatar to delete"},
	AvatarTooLarge:  {http.StatusUnprocessableEntity, "Avatar image is too large"},
	ExportTooLarge:  {http.StatusUnprocessableEntity, "Too many transactions in the requested range"},
	ExportBadFormat: {http.StatusUnprocessableEntity, "Unsupported export format"},

	SystemInternalError:      {http.StatusInternalServerError, "An unexpected error occurred. Please contact support with trace ID"},
	SystemDatabaseError:      {http.StatusInternalServerError, "Database connection error"},
	SystemServiceUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
	SystemStorageError:       {http.StatusInternalServerError, "File storage error"},
	SystemUnexpectedError:    {http.StatusInternalServerError, "An unexpected error occurred"},
	SystemRateLimitExceeded:  {http.StatusTooManyRequests, "Rate limit exceeded. Please try again later"},
	SystemRouteNotFound:      {http.StatusNotFound, "Route not found"},
	SystemMethodNotAllowed:   {http.StatusMethodNotAllowed, "Method not allowed"},
}

// Known reports whether the code is registered.
func (c ErrorCode) Known() bool {
	_, ok := catalog[c]
	return ok
}

// Message returns the default client-facing message for the code.
func (c ErrorCode) Message() string {
	if def, ok := catalog[c]; ok {
		return def.message
	}
	return "An error occurred"
}

// HTTPStatus returns the response status for the code. Unregistered codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if def, ok := catalog[c]; ok {
		return def.status
	}
	return http.StatusInternalServerError
}
