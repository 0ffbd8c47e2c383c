package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// WrapIfErr wraps err with the given kind/message/httpCode if it is
// non-nil, otherwise returns nil; lets callers do `return WrapIfErr(err, ...)`
// without an explicit nil check.
func WrapIfErr(err error, kind, message string, httpCode int) error {
	if err == nil {
		return nil
	}
	return Wrap(err, kind, message, httpCode)
}

// JoinErrors combines zero or more errors into one. A single non-nil error
// passes through unchanged; multiple are folded into an Internal error
// whose cause is the first one and whose message lists them all.
func JoinErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}

	if len(nonNil) == 0 {
		return nil
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}

	messages := make([]string, 0, len(nonNil))
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}
	return Internal(fmt.Sprintf("multiple errors occurred: %s", strings.Join(messages, "; ")), nonNil[0])
}

func IsNil(err error) bool {
	return err == nil
}

func IsNotNil(err error) bool {
	return err != nil
}

// IsType is an alias for Is kept for call sites that read better naming
// the check after the error's kind rather than calling Is directly.
func IsType(err error, kind string) bool {
	return Is(err, kind)
}

// HasCause reports whether cause appears anywhere in err's AppError chain.
func HasCause(err error, cause error) bool {
	if err == nil || cause == nil {
		return false
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if appErr.Cause == cause {
			return true
		}
		return HasCause(appErr.Cause, cause)
	}

	return err == cause
}

// FormatErrorChain renders err and its AppError stack/cause chain for logs.
func FormatErrorChain(err error) string {
	if err == nil {
		return "<nil>"
	}

	var result strings.Builder
	result.WriteString(err.Error())

	var appErr *AppError
	if stderrors.As(err, &appErr) && len(appErr.Stack) > 0 {
		result.WriteString("\nStack Trace:\n")
		for _, frame := range appErr.Stack {
			result.WriteString("  ")
			result.WriteString(frame)
			result.WriteString("\n")
		}
	}

	if cause := stderrors.Unwrap(err); cause != nil {
		result.WriteString("\nCaused by: ")
		result.WriteString(FormatErrorChain(cause))
	}

	return result.String()
}

// GetErrorDetails returns the kind, message, HTTP status and request id
// carried by err, or a generic fallback if err is not an AppError.
func GetErrorDetails(err error) (kind string, message string, httpCode int, requestID string) {
	if err == nil {
		return "", "", 0, ""
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind, appErr.Message, appErr.HTTPCode, appErr.RequestID
	}

	return KindInternal, err.Error(), 500, ""
}
