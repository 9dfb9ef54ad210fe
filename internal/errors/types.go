package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeReference  ErrorType = "reference"
	ErrorTypeTool       ErrorType = "tool"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeParse           = "ERR_PARSE"
	ErrCodeUnresolvedRef   = "ERR_UNRESOLVED_REF"
	ErrCodeToolUnavailable = "ERR_TOOL_UNAVAILABLE"
	ErrCodeToolFailed      = "ERR_TOOL_FAILED"
	ErrCodeIOWrite         = "ERR_IO_WRITE"
	ErrCodeIORead          = "ERR_IO_READ"
	ErrCodeDuplicate       = "ERR_DUPLICATE_PATTERN"
	ErrCodeBrokenLink      = "ERR_BROKEN_LINK"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// DocError is a structured error type with context.
type DocError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Pattern     string
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *DocError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Pattern != "" {
		parts = append(parts, "pattern:"+e.Pattern)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DocError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *DocError) Is(target error) bool {
	var t *DocError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *DocError) WithContext(key string, value interface{}) *DocError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *DocError) WithLocation(filePath string, line, column int) *DocError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithPattern adds pattern context.
func (e *DocError) WithPattern(pattern string) *DocError {
	e.Pattern = pattern

	return e
}

// Error creation functions

// NewParseError reports a malformed source file. The file's patterns are
// dropped; sibling files are unaffected.
func NewParseError(file string, line int, cause error) *DocError {
	return &DocError{
		Type:        ErrorTypeParse,
		Code:        ErrCodeParse,
		Message:     "malformed pattern file",
		Cause:       cause,
		FilePath:    file,
		Line:        line,
		Recoverable: true,
	}
}

// NewUnresolvedReferenceError reports a trigger group edge reference that
// names no edge of the enclosing pattern.
func NewUnresolvedReferenceError(pattern, group, ref string) *DocError {
	msg := fmt.Sprintf("trigger group references unknown edge %q", ref)
	if group != "" {
		msg = fmt.Sprintf("trigger group %q references unknown edge %q", group, ref)
	}

	return &DocError{
		Type:        ErrorTypeReference,
		Code:        ErrCodeUnresolvedRef,
		Message:     msg,
		Pattern:     pattern,
		Recoverable: true,
		Context:     map[string]interface{}{"group": group, "ref": ref},
	}
}

// NewToolUnavailableError reports that the external layout tool is missing.
func NewToolUnavailableError(tool string, cause error) *DocError {
	return &DocError{
		Type:        ErrorTypeTool,
		Code:        ErrCodeToolUnavailable,
		Message:     tool + " is not available, diagrams are omitted",
		Cause:       cause,
		Recoverable: true,
	}
}

// NewToolFailedError reports a layout tool invocation that did not produce an
// image.
func NewToolFailedError(tool, output string, cause error) *DocError {
	msg := tool + " failed"
	if output != "" {
		msg += ": " + strings.TrimSpace(output)
	}

	return &DocError{
		Type:        ErrorTypeTool,
		Code:        ErrCodeToolFailed,
		Message:     msg,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOWriteError reports an output directory or file that could not be
// written. Only the affected document is skipped.
func NewIOWriteError(path string, cause error) *DocError {
	return &DocError{
		Type:        ErrorTypeIO,
		Code:        ErrCodeIOWrite,
		Message:     "cannot write output",
		Cause:       cause,
		FilePath:    path,
		Recoverable: true,
	}
}

// NewIOReadError reports a source path that could not be read.
func NewIOReadError(path string, cause error) *DocError {
	return &DocError{
		Type:        ErrorTypeIO,
		Code:        ErrCodeIORead,
		Message:     "cannot read source",
		Cause:       cause,
		FilePath:    path,
		Recoverable: true,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *DocError {
	return &DocError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *DocError {
	return &DocError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *DocError {
	return &DocError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var de *DocError
	if errors.As(err, &de) {
		return de.Recoverable
	}

	return false
}

// TypeOf returns the error type of a DocError anywhere in the chain, or ""
// for foreign errors.
func TypeOf(err error) ErrorType {
	var de *DocError
	if errors.As(err, &de) {
		return de.Type
	}

	return ""
}

// IsParseError checks if an error is a malformed-source error.
func IsParseError(err error) bool {
	return TypeOf(err) == ErrorTypeParse
}

// IsReferenceError checks if an error is an unresolved trigger reference.
func IsReferenceError(err error) bool {
	return TypeOf(err) == ErrorTypeReference
}

// IsToolError checks if an error comes from the external layout tool.
func IsToolError(err error) bool {
	return TypeOf(err) == ErrorTypeTool
}

// IsIOError checks if an error is an I/O error.
func IsIOError(err error) bool {
	return TypeOf(err) == ErrorTypeIO
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its recoverability.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var de *DocError
	if !errors.As(err, &de) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	fields := []interface{}{"type", string(de.Type), "code", de.Code}
	if de.Pattern != "" {
		fields = append(fields, "pattern", de.Pattern)
	}
	if de.FilePath != "" {
		fields = append(fields, "file", de.FilePath)
	}
	if de.Line > 0 {
		fields = append(fields, "line", de.Line)
	}

	switch de.Type {
	case ErrorTypeParse:
		h.logger.Warn(ctx, err, "Skipping malformed pattern file", fields...)
	case ErrorTypeReference:
		h.logger.Warn(ctx, err, "Skipping trigger group", fields...)
	case ErrorTypeTool:
		h.logger.Warn(ctx, err, "Diagram not produced", fields...)
	case ErrorTypeIO:
		h.logger.Error(ctx, err, "Skipping document", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}
