package collab

import (
	"errors"
	"fmt"

	"github.com/bethropolis/collabmd/internal/types"
)

var (
	// ErrInference marks observed before/after states that cannot be mapped to a valid operation.
	ErrInference = errors.New("cannot infer edit")
	// ErrApply marks failures to forward an operation to the shared sequence.
	ErrApply = errors.New("cannot apply edit")
	// ErrTransform marks a remote position transform that had to be clamped.
	ErrTransform = errors.New("transformed selection out of range")

	// ErrNoChange is returned by inferencers when old and new text are identical.
	ErrNoChange = errors.New("text unchanged")
	// ErrOutOfRange is returned for operations whose offsets do not fit the text.
	ErrOutOfRange = errors.New("offset out of range")
	// ErrEmptyEdit is returned for operations that would not change anything.
	ErrEmptyEdit = errors.New("empty edit")

	ErrAlreadyActive = errors.New("binding already active")
	ErrInactive      = errors.New("binding not active")
)

// InferenceError describes an observation that could not be turned into an operation.
type InferenceError struct {
	Reason    string
	OldLen    int
	NewLen    int
	Selection types.SelectionRange
	Caret     int
	Err       error
}

func (e *InferenceError) Error() string {
	msg := fmt.Sprintf("%v: %s (old len %d, new len %d, selection %v, caret %d)",
		ErrInference, e.Reason, e.OldLen, e.NewLen, e.Selection, e.Caret)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InferenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInference}
	}
	return []error{ErrInference, e.Err}
}

// ApplyError wraps a rejected or failed forward to the shared sequence.
type ApplyError struct {
	Op  EditOperation
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%v %v: %v", ErrApply, e.Op, e.Err)
}

func (e *ApplyError) Unwrap() []error {
	return []error{ErrApply, e.Err}
}

// TransformError reports a remote transform whose result had to be clamped.
// The clamped selection has already been applied when this is reported.
type TransformError struct {
	Transformed types.SelectionRange
	Clamped     types.SelectionRange
	Length      int
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%v: %v clamped to %v for length %d", ErrTransform, e.Transformed, e.Clamped, e.Length)
}

func (e *TransformError) Unwrap() error {
	return ErrTransform
}
