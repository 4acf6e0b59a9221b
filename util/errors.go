package util

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrValidation          ErrorCode = "VALIDATION"
	ErrFetch               ErrorCode = "FETCH"
	ErrFilesystem          ErrorCode = "FILESYSTEM"
	ErrUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM"
	ErrInternal            ErrorCode = "INTERNAL"
	ErrUnknown             ErrorCode = "UNKNOWN"
)

// AgentError is the error type returned by every install path.
type AgentError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *AgentError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *AgentError) Unwrap() error {
	return e.Wrapped
}

// Is matches any AgentError carrying the same code.
func (e *AgentError) Is(target error) bool {
	var t *AgentError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *AgentError) WithDetail(key string, value interface{}) *AgentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func NewError(code ErrorCode, message string) *AgentError {
	return &AgentError{Code: code, Message: message}
}

func Errorf(code ErrorCode, format string, args ...interface{}) *AgentError {
	return &AgentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(err error, code ErrorCode, format string, args ...interface{}) *AgentError {
	if err == nil {
		return nil
	}
	return &AgentError{Code: code, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

func IsErrorCode(err error, code ErrorCode) bool {
	var e *AgentError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetErrorCode returns ErrUnknown for errors that are not AgentErrors.
func GetErrorCode(err error) ErrorCode {
	var e *AgentError
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details of the outermost AgentError in err, if any.
func GetErrorDetails(err error) map[string]interface{} {
	var e *AgentError
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
