package core

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrOutOfRange   = errors.New("out of range")
	ErrMissingField = errors.New("missing field")
	ErrNotFound     = errors.New("not found")
	ErrStore        = errors.New("store error")
	ErrExport       = errors.New("export error")
)

// ValidationError reports which field failed, with the offending value and the allowed bound.
type ValidationError struct {
	Kind  error
	Field string
	Value string
	Bound string
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Kind, ErrMissingField) {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s %s is out of range (allowed %s)", e.Field, e.Value, e.Bound)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// OpError wraps a collaborator failure (store or exporter) with the operation that failed.
type OpError struct {
	Kind error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() []error { return []error{e.Kind, e.Err} }

// StoreError marks err as a persistence failure of op.
func StoreError(op string, err error) error {
	return &OpError{Kind: ErrStore, Op: op, Err: err}
}

// ExportError marks err as a document rendering failure of op.
func ExportError(op string, err error) error {
	return &OpError{Kind: ErrExport, Op: op, Err: err}
}

// NotFound reports a missing entry id.
func NotFound(id int64) error {
	return fmt.Errorf("entry %d: %w", id, ErrNotFound)
}
