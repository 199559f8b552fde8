package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeUnsupportedFormat  ErrorType = "unsupported_format"
	ErrorTypeSubmissionRejected ErrorType = "submission_rejected"
	ErrorTypeConnectionTimeout  ErrorType = "connection_timeout"
	ErrorTypeStreamClosed       ErrorType = "stream_closed"
	ErrorTypeRemoteExtraction   ErrorType = "remote_extraction"
	ErrorTypeMalformedEdit      ErrorType = "malformed_edit"
	ErrorTypeSaveFailed         ErrorType = "save_failed"
	ErrorTypeServiceUnavailable ErrorType = "service_unavailable"
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeConfig             ErrorType = "config"
	ErrorTypeIO                 ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// CloseStatus carries the close code and reason of a progress channel that
// ended before a terminal frame arrived.
type CloseStatus struct {
	Code   int
	Reason string
}

func (s *CloseStatus) Error() string {
	if s.Reason == "" {
		return fmt.Sprintf("close code %d", s.Code)
	}
	return fmt.Sprintf("close code %d: %s", s.Code, s.Reason)
}

// Common error constructors

func UnsupportedFormatError(name string) *DomainError {
	return NewError(ErrorTypeUnsupportedFormat,
		fmt.Sprintf("Unsupported file format for %q. Please select a PDF or JSON file.", name), nil)
}

func SubmissionRejectedError(detail string, err error) *DomainError {
	return NewError(ErrorTypeSubmissionRejected, detail, err)
}

func ConnectionTimeoutError(message string) *DomainError {
	return NewError(ErrorTypeConnectionTimeout, message, nil)
}

func StreamClosedError(code int, reason string) *DomainError {
	msg := "WebSocket connection closed before receiving data"
	if code != 1000 {
		msg = strings.TrimSpace(fmt.Sprintf("WebSocket connection closed unexpectedly: %d %s", code, reason))
	}
	return NewError(ErrorTypeStreamClosed, msg, &CloseStatus{Code: code, Reason: reason})
}

func RemoteExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypeRemoteExtraction, message, err)
}

func MalformedEditError(err error) *DomainError {
	return NewError(ErrorTypeMalformedEdit, "Invalid JSON", err)
}

func SaveFailedError(detail string, err error) *DomainError {
	return NewError(ErrorTypeSaveFailed, detail, err)
}

func ServiceUnavailableError(message string, err error) *DomainError {
	return NewError(ErrorTypeServiceUnavailable, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// IsType reports whether err wraps a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// UserMessage returns the text shown next to the action that failed.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
