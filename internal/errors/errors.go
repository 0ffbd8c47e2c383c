// Package errors defines the application's error kinds and a single
// structured error type that carries enough context to answer a request
// over HTTP or MCP without a second translation layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Error kind constants. These are the machine codes surfaced to
// callers; each constructor in kinds.go pairs its kind with an HTTP
// status. MCP tool errors carry no separate code: ErrMCPTool returns the
// error text, which begins with the kind.
const (
	KindPathUnsafe              = "path_unsafe"
	KindArchiveCorrupt          = "archive_corrupt"
	KindArchiveUnsupported      = "archive_unsupported"
	KindSecurityLimitExceeded   = "security_limit_exceeded"
	KindCasIo                   = "cas_io"
	KindMetadataIo              = "metadata_io"
	KindCasIntegrity            = "cas_integrity"
	KindQueryInvalid            = "query_invalid"
	KindRegexUnsafe             = "regex_unsafe"
	KindTaskCanceled            = "task_canceled"
	KindTaskManagerUnresponsive = "task_manager_unresponsive"
	KindWorkspaceNotFound       = "workspace_not_found"
	KindTimeout                 = "timeout"
	KindInvalidArg              = "invalid_argument"
	KindInternal                = "internal"
)

// AppError is the application's single error type. Kind carries the
// machine code above; Message is the longer, human-readable reason.
type AppError struct {
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Cause     error          `json:"-"`
	HTTPCode  int            `json:"-"`
	Fields    map[string]any `json:"fields,omitempty"`
	Stack     []string       `json:"-"`
	RequestID string         `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStack captures the current call stack for debugging; it is opt-in
// since it is only worth paying for on errors that reach the top level.
func (e *AppError) WithStack() *AppError {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	e.Stack = stack
	return e
}

func (e *AppError) WithField(key string, value any) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func (e *AppError) WithRequestID(id string) *AppError {
	e.RequestID = id
	return e
}

// New constructs an AppError of the given kind.
func New(kind, message string, cause error, httpCode int) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause, HTTPCode: httpCode}
}

// Wrap re-labels an existing error, preserving an inner AppError's kind if
// present so a lower layer's classification always wins over a higher
// layer's generic wrapping.
func Wrap(err error, kind, message string, httpCode int) *AppError {
	if err == nil {
		return nil
	}
	var inner *AppError
	if errors.As(err, &inner) {
		return &AppError{Kind: inner.Kind, Message: message, Cause: inner.Cause, HTTPCode: inner.HTTPCode, Stack: inner.Stack}
	}
	return New(kind, message, err, httpCode)
}

func Is(err error, kind string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func GetKind(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

// AsAppError unwraps err into an *AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
