package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Pipeline specific errors
	CodeChallengeServiceError ErrorCode = "CHALLENGE_SERVICE_ERROR"
	CodeCatalogServiceError   ErrorCode = "CATALOG_SERVICE_ERROR"
	CodeLLMServiceError       ErrorCode = "LLM_SERVICE_ERROR"
	CodeInvalidAnswer         ErrorCode = "INVALID_ANSWER"
	CodeCacheError            ErrorCode = "CACHE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewChallengeServiceError(err error) *DomainError {
	return NewError(CodeChallengeServiceError, "Failed to reach challenge service", err)
}

func NewCatalogServiceError(source string, err error) *DomainError {
	return NewError(CodeCatalogServiceError, fmt.Sprintf("Failed to fetch %s catalog", source), err)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", err)
}

func NewInvalidAnswerError(message string) *DomainError {
	return NewError(CodeInvalidAnswer, message, nil)
}

func NewCacheError(err error) *DomainError {
	return NewError(CodeCacheError, "Cache operation failed", err)
}
