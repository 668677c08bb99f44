package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeConfiguration is a missing or unusable setting (e.g. no API
	// key), detected before any network activity.
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeTransport is a failure to reach the provider or a connection
	// dropped mid-stream.
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeProvider is a non-2xx answer from the provider.
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeSerialization is a failure to encode the outgoing request.
	ErrorTypeSerialization ErrorType = "serialization_error"

	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeServerError    ErrorType = "server_error"
)

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewConfigurationError creates an APIError for a missing or invalid setting.
func NewConfigurationError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeConfiguration,
		Param:   param,
		Message: message,
	}
}

// NewTransportError creates an APIError for connection-level failures.
func NewTransportError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTransport,
		Message: message,
	}
}

// NewProviderError creates an APIError for a non-2xx provider answer. The
// message is the provider's response body, unmodified.
func NewProviderError(status int, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeProvider,
		Code:    fmt.Sprintf("http_%d", status),
		Message: message,
	}
}

// NewSerializationError creates an APIError for request encoding failures.
func NewSerializationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeSerialization,
		Message: message,
	}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
