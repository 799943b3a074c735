package base

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrUseAfterClose is returned by any sink operation invoked after Close
var ErrUseAfterClose = errors.New("sink is closed")

// ErrNotOpen is returned by Handle or Flush before the sink has been opened
var ErrNotOpen = errors.New("sink is not open")

// SchemaError means the backend rejected creation or verification of the log table at setup
type SchemaError struct {
	Table TableIdentity
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("failed to ensure table %s: %s", e.Table, e.Cause)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// MappingError means a buffered record could not be converted to a row, e.g. mismatched message arguments
//
// The whole flush is aborted and the buffer is kept
type MappingError struct {
	Index      int    // position of the failing record in the buffer
	LoggerName string // logger of the failing record
	Cause      error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("failed to map record #%d from logger '%s': %s", e.Index, e.LoggerName, e.Cause)
}

func (e *MappingError) Unwrap() error {
	return e.Cause
}

// WriteError means the backend failed to insert a batch. The buffer is kept for the next flush attempt.
type WriteError struct {
	Table     TableIdentity
	BatchSize int
	Cause     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to insert %d rows into %s: %s", e.BatchSize, e.Table, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// IsSchemaError returns true if any error in the chain is a SchemaError
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsMappingError returns true if any error in the chain is a MappingError
func IsMappingError(err error) bool {
	var target *MappingError
	return errors.As(err, &target)
}

// IsWriteError returns true if any error in the chain is a WriteError
func IsWriteError(err error) bool {
	var target *WriteError
	return errors.As(err, &target)
}
