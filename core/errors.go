package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// StorageError signals that the active storage engine failed to complete an
// operation. Engine-specific error types are never surfaced to callers; they
// are kept as the Err cause.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func NewStorageError(op, table string, err error) error {
	return &StorageError{Op: op, Table: table, Err: err}
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
