package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error carrying a user-facing message
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidContentType   = NewDomainError(ErrCodeValidation, "invalid content type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrCaptchaMissing       = NewDomainError(ErrCodeValidation, "verifica CAPTCHA mancante")
	ErrCaptchaFailed        = NewDomainError(ErrCodeValidation, "verifica CAPTCHA non superata")
)

// Not found errors
var (
	ErrKnowledgeNotFound    = NewDomainError(ErrCodeNotFound, "knowledge entry not found")
	ErrConversationNotFound = NewDomainError(ErrCodeNotFound, "conversation not found")
)

// Authorization errors
var (
	ErrUnauthorized = NewDomainError(ErrCodeUnauthorized, "authentication required")
	ErrForbidden    = NewDomainError(ErrCodeForbidden, "admin role required")
)

// Admission errors
var (
	ErrRateLimited = NewDomainError(ErrCodeRateLimited, "troppe richieste, riprova più tardi")
)

// Upstream errors
var (
	ErrGenerationFailed = NewDomainError(ErrCodeUpstream, "response generation failed")
	ErrEmbeddingFailed  = NewDomainError(ErrCodeUpstream, "embedding generation failed")
	ErrMailFailed       = NewDomainError(ErrCodeUpstream, "email delivery failed")
)
