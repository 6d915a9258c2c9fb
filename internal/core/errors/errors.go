package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeFrozen          ErrorCode = "FROZEN"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// DomainError is returned for failures of the tool itself (bad input files,
// misuse of the code base API). Findings about analyzed code are
// diagnostics, never errors.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

const (
	CtxFQSEN     = "fqsen"
	CtxFile      = "file"
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxElement   = "element"
)

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Context) > 0 {
		keys := slices.Sorted(maps.Keys(e.Context))
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString("}")
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key to the DomainError inside err, wrapping plain
// errors as internal ones.
func AddContext(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
