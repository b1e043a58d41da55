package engine

import (
	"errors"
	"fmt"
)

// ReadError wraps a reader failure; validation aborts with no partial
// report, per spec.md §7.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("engine: read error: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// EvaluationError reports a rule evaluator failure for a specific
// column/rule pair. The engine stops and returns this error; it never
// happens in normal operation and indicates a bug (spec.md §7).
type EvaluationError struct {
	Column string
	Rule   string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("engine: evaluation error on column %q rule %q: %v", e.Column, e.Rule, e.Err)
}
func (e *EvaluationError) Unwrap() error { return e.Err }

// ErrCancelled is returned when the caller's cancellation signal fires
// between batches or between pass 1 and pass 2 (spec.md §5).
var ErrCancelled = errors.New("engine: validation cancelled")

var errColumnMissing = errors.New("column not present in batch")
