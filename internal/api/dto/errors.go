package dto

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound         = "not_found"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInternalError    = "internal_error"
	ErrCodeValidation       = "validation_error"
	ErrCodeNoText           = "no_text"
	ErrCodeRulesUnavailable = "rules_unavailable"
	ErrCodeRequestCancelled = "request_cancelled"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// NoTextError is returned when a message carries neither text nor HTML.
func NoTextError(message string) APIError {
	return NewAPIError(ErrCodeNoText, message)
}

// RulesUnavailableError is returned when the rule table could not be loaded.
func RulesUnavailableError() APIError {
	return NewAPIError(ErrCodeRulesUnavailable, "rule table unavailable, try again later")
}

// RequestCancelledError is returned when the client went away mid-request.
func RequestCancelledError() APIError {
	return NewAPIError(ErrCodeRequestCancelled, "request cancelled")
}
