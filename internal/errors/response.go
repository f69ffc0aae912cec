package errors

// ErrorResponse is the body of every failed request. Status and Message
// mirror the success envelope so clients can branch on status alone.
type ErrorResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

type ErrorOption func(*ErrorResponse)

func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = append(er.Error.Details, details...)
	}
}

// WithMessage replaces the code's default message in both places it appears.
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Message = message
		er.Error.Message = message
	}
}

func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	msg := code.Message()
	er := &ErrorResponse{
		Message: msg,
		Error: ErrorDetail{
			Code:    string(code),
			Message: msg,
			TraceID: traceID,
		},
	}
	for _, opt := range opts {
		opt(er)
	}
	return er
}

// HTTPStatus is the status the response is sent with.
func (er *ErrorResponse) HTTPStatus() int {
	return ErrorCode(er.Error.Code).HTTPStatus()
}
