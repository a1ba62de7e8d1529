package collab

import (
	"github.com/bethropolis/collabmd/internal/utils"
)

// SharedSequence is the shared character sequence local edits are forwarded to.
type SharedSequence interface {
	GetText() string
	InsertText(text string, at int) error
	ReplaceText(text string, start, end int) error
	RemoveText(start, end int) error
}

// Applier forwards inferred operations to a SharedSequence.
type Applier struct {
	seq SharedSequence
}

func NewApplier(seq SharedSequence) *Applier {
	return &Applier{seq: seq}
}

// Apply validates op against the sequence's current length and forwards it.
// Nothing is forwarded when validation fails. Failures are not retried.
func (a *Applier) Apply(op EditOperation) error {
	if op == nil {
		return &ApplyError{Op: op, Err: ErrEmptyEdit}
	}
	if err := op.Validate(utils.RuneLen(a.seq.GetText())); err != nil {
		return &ApplyError{Op: op, Err: err}
	}

	var err error
	switch o := op.(type) {
	case Insert:
		err = a.seq.InsertText(o.Text, o.At)
	case Replace:
		err = a.seq.ReplaceText(o.Text, o.Start, o.End)
	case Delete:
		err = a.seq.RemoveText(o.Start, o.End)
	}
	if err != nil {
		return &ApplyError{Op: op, Err: err}
	}
	return nil
}
