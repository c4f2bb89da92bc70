package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/sigil/internal/lexer"
)

// ErrorCode categorizes runtime errors for callers that branch on the
// failure class rather than the message text.
type ErrorCode string

const (
	// ErrCodeIterationLimit indicates the global iteration counter
	// exceeded MaxIterations, or a loop collection was larger than the
	// bound up front.
	ErrCodeIterationLimit ErrorCode = "ITERATION_LIMIT"

	// ErrCodeRecursionLimit indicates closure call depth exceeded
	// MaxRecursion.
	ErrCodeRecursionLimit ErrorCode = "RECURSION_LIMIT"

	// ErrCodeTimeLimit indicates elapsed wall-clock time exceeded
	// MaxExecutionSeconds at a cooperative check.
	ErrCodeTimeLimit ErrorCode = "TIME_LIMIT"

	// ErrCodeUnknownFunction indicates a call to a name that is neither
	// a builtin nor a closure in scope.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeNotIterable indicates a ForEach collection that is not a
	// list, map, or string.
	ErrCodeNotIterable ErrorCode = "NOT_ITERABLE"

	// ErrCodeInvalidGenesis indicates a present genesis block missing
	// its root or the required axiom.
	ErrCodeInvalidGenesis ErrorCode = "INVALID_GENESIS"

	// ErrCodeMemoryFull is reserved for hosts that want a full store to
	// raise instead of refuse. The persist builtin reports false.
	ErrCodeMemoryFull ErrorCode = "MEMORY_FULL"
)

// RuntimeError is an error detected during evaluation. It carries the
// source position of the failing node when one is available.
type RuntimeError struct {
	Code    ErrorCode
	Message string
	Pos     lexer.Pos
	HasPos  bool
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.HasPos {
		return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newError creates a RuntimeError without a position.
func newError(code ErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// newErrorAt creates a RuntimeError carrying a source position.
func newErrorAt(code ErrorCode, pos lexer.Pos, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos, HasPos: true}
}

// IsLimitError reports whether err is any resource-limit violation.
// Uses errors.As to handle wrapped errors.
func IsLimitError(err error) bool {
	var re *RuntimeError
	if !errors.As(err, &re) {
		return false
	}
	switch re.Code {
	case ErrCodeIterationLimit, ErrCodeRecursionLimit, ErrCodeTimeLimit:
		return true
	default:
		return false
	}
}

// HasErrorCode reports whether err is a RuntimeError with the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == code
}
