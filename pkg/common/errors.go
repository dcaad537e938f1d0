package common

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound         = errors.New("key not found")
	ErrMalformedInput      = errors.New("malformed input")
	ErrUnknownStrategy     = errors.New("unknown strategy")
	ErrWeightCountMismatch = errors.New("weight count mismatch")
	ErrInvalidK            = errors.New("k must be positive")
	ErrNegativeWeight      = errors.New("weights must be finite and non-negative")
	ErrNotSealed           = errors.New("index set is not sealed")
)

// InputError locates a malformed field in an ingested file.
// It matches ErrMalformedInput under errors.Is.
type InputError struct {
	File   string
	Line   int
	Column string
	cause  error
}

func NewInputError(file string, line int, column string, cause error) *InputError {
	return &InputError{File: file, Line: line, Column: column, cause: cause}
}

func (e *InputError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Column != "" {
		loc = fmt.Sprintf("%s (column %q)", loc, e.Column)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedInput, loc, e.cause)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedInput, loc)
}

func (e *InputError) Is(target error) bool { return target == ErrMalformedInput }

func (e *InputError) Unwrap() error { return e.cause }
