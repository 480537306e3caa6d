// Package crderrors defines the typed failure taxonomy shared by the graph
// core, graph builder, and executor. Call sites wrap one of the sentinel
// errors below with fmt.Errorf("%w: ...", Err...) so that callers can use
// errors.Is against a stable identity while still getting a readable,
// context-specific message.
package crderrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStepIndex is returned when a step index is added out of
	// sequence and is larger than the next expected index.
	ErrInvalidStepIndex = errors.New("taskcrdgo: invalid step index")
	// ErrDuplicateStepIndex is returned when a step index is added that
	// was already assigned to an earlier step.
	ErrDuplicateStepIndex = errors.New("taskcrdgo: duplicate step index")
	// ErrInvalidFieldIndex is returned when a field index is added out of
	// sequence and is larger than the next expected index.
	ErrInvalidFieldIndex = errors.New("taskcrdgo: invalid field index")
	// ErrDuplicateFieldIndex is returned when a field index is added that
	// was already assigned to an earlier field.
	ErrDuplicateFieldIndex = errors.New("taskcrdgo: duplicate field index")
	// ErrTypeMismatch is returned when two fields or two values do not
	// share the same type tag where one is required.
	ErrTypeMismatch = errors.New("taskcrdgo: type mismatch")
	// ErrMultipleCreate is returned when an equivalence class would end up
	// with more than one Create field.
	ErrMultipleCreate = errors.New("taskcrdgo: multiple create usages for one data object")
	// ErrMultipleDestroy is returned when an equivalence class would end
	// up with more than one Destroy field.
	ErrMultipleDestroy = errors.New("taskcrdgo: multiple destroy usages for one data object")
	// ErrUnsafeSelfAliasing is returned when a single step would hold
	// incompatible usages (anything but all-Read) on the same data object.
	ErrUnsafeSelfAliasing = errors.New("taskcrdgo: unsafe self-aliasing")
	// ErrMissingCreate is returned when a data object has no Create field.
	// Its severity (Warning vs Error) is context-dependent; see
	// graphcore.Diagnostics.
	ErrMissingCreate = errors.New("taskcrdgo: data object has no create field")
	// ErrCycleDetected is returned whenever the combined edge set would
	// contain a cycle, including step self-loops.
	ErrCycleDetected = errors.New("taskcrdgo: cycle detected")
	// ErrInvalidState is returned when an operation is attempted against a
	// graph or plan that is not in the state it requires.
	ErrInvalidState = errors.New("taskcrdgo: invalid state")
	// ErrCapacityExceeded is returned when adding another element would
	// overflow the index type's capacity.
	ErrCapacityExceeded = errors.New("taskcrdgo: capacity exceeded")
	// ErrIndexOutOfRange is returned when an index argument falls outside
	// the valid range for the structure it addresses.
	ErrIndexOutOfRange = errors.New("taskcrdgo: index out of range")
	// ErrNullArgument is returned when a required handle argument is nil
	// or already expired.
	ErrNullArgument = errors.New("taskcrdgo: null argument")
	// ErrExpiredEntry is returned when an operation requires a live
	// referent but the stored handle has expired.
	ErrExpiredEntry = errors.New("taskcrdgo: expired entry")
	// ErrEmpty is returned when a typed access is attempted against an
	// empty value box.
	ErrEmpty = errors.New("taskcrdgo: empty value")
	// ErrInvariantViolation is returned when an operation's precondition
	// about the structure's current state does not hold.
	ErrInvariantViolation = errors.New("taskcrdgo: invariant violation")
	// ErrValidationFailed is the identity wrapped by ValidationFailedError.
	ErrValidationFailed = errors.New("taskcrdgo: validation failed")
)

// IndexOutOfRangeError carries the offending index and the exclusive upper
// bound it was checked against.
type IndexOutOfRangeError struct {
	Index int
	Bound int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("taskcrdgo: index %d out of range [0, %d)", e.Index, e.Bound)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// NewIndexOutOfRange builds an IndexOutOfRangeError for index against an
// exclusive upper bound.
func NewIndexOutOfRange(index, bound int) error {
	return &IndexOutOfRangeError{Index: index, Bound: bound}
}

// DiagnosticsReport is the narrow view a ValidationFailedError needs of a
// structured diagnostics result. graphcore.Diagnostics satisfies this
// without crderrors importing graphcore.
type DiagnosticsReport interface {
	Summary() string
}

// ValidationFailedError is the single exception build() raises when
// get_diagnostics reports one or more errors. It embeds the structured
// report for programmatic inspection alongside the human-readable summary.
type ValidationFailedError struct {
	Report DiagnosticsReport
}

func (e *ValidationFailedError) Error() string {
	return "taskcrdgo: validation failed:\n" + e.Report.Summary()
}

func (e *ValidationFailedError) Unwrap() error { return ErrValidationFailed }

// NewValidationFailed wraps a diagnostics report in a ValidationFailedError.
func NewValidationFailed(report DiagnosticsReport) error {
	return &ValidationFailedError{Report: report}
}
