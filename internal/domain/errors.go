package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Question bank and attempt store errors
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	CodeStorage    ErrorCode = "STORAGE_ERROR"

	// Session errors
	CodeInvalidAnswer ErrorCode = "INVALID_ANSWER"
	CodeSessionState  ErrorCode = "SESSION_STATE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair that identifies what failed.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

// NewValidationError reports a question bank problem that is not tied to a
// single record, e.g. an unreadable file or an empty list.
func NewValidationError(message string, cause error) *DomainError {
	return NewError(CodeValidation, message, cause)
}

// NewRecordValidationError identifies the offending bank record by its
// 1-based position and, when it could be read, its raw id.
func NewRecordValidationError(position int, rawID interface{}, field, message string) *DomainError {
	text := fmt.Sprintf("record %d", position)
	if rawID != nil {
		text = fmt.Sprintf("record %d (id %v)", position, rawID)
	}
	err := NewError(CodeValidation, fmt.Sprintf("%s: %s", text, message), nil).
		WithContext("record", position).
		WithContext("field", field)
	if rawID != nil {
		err.WithContext("id", rawID)
	}
	return err
}

// NewStorageError wraps a persistence failure for the named operation.
func NewStorageError(op string, err error) *DomainError {
	return NewError(CodeStorage, fmt.Sprintf("attempt store %s failed", op), err).
		WithContext("op", op)
}

func NewInvalidAnswerError(message string) *DomainError {
	return NewError(CodeInvalidAnswer, message, nil)
}

func NewSessionStateError(state SessionState, action string) *DomainError {
	return NewError(CodeSessionState, fmt.Sprintf("cannot %s a session in state %s", action, state), nil).
		WithContext("state", string(state))
}

// CodeOf returns the code of the first DomainError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

func IsValidationError(err error) bool {
	return err != nil && CodeOf(err) == CodeValidation
}

func IsStorageError(err error) bool {
	return err != nil && CodeOf(err) == CodeStorage
}
