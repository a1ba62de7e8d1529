package collab

import (
	"fmt"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/types"
	"github.com/bethropolis/collabmd/internal/utils"
)

// Inferencer reconstructs one edit from observed before/after states.
type Inferencer interface {
	Infer(oldText, newText string, oldSel types.SelectionRange, newCaret int) (EditOperation, error)
}

// NewInferencer returns the inferencer registered under strategy.
func NewInferencer(strategy string) (Inferencer, error) {
	switch strategy {
	case "", config.InferenceCaret:
		return CaretInferencer{}, nil
	case config.InferenceDiff:
		return DiffInferencer{}, nil
	default:
		return nil, fmt.Errorf("unknown inference strategy %q", strategy)
	}
}

// CaretInferencer uses the direction the caret moved relative to the start of
// the previous selection. Forward movement means the runes between the old
// selection start and the new caret were typed or pasted; anything else is a
// deletion ending where the caret now sits.
type CaretInferencer struct{}

func (CaretInferencer) Infer(oldText, newText string, oldSel types.SelectionRange, newCaret int) (EditOperation, error) {
	if oldText == newText {
		return nil, ErrNoChange
	}
	oldLen, newLen := utils.RuneLen(oldText), utils.RuneLen(newText)
	fail := func(reason string, err error) error {
		return &InferenceError{Reason: reason, OldLen: oldLen, NewLen: newLen, Selection: oldSel, Caret: newCaret, Err: err}
	}
	if !oldSel.Valid(oldLen) {
		return nil, fail("selection outside previous text", nil)
	}
	if newCaret < 0 || newCaret > newLen {
		return nil, fail("caret outside new text", nil)
	}

	var op EditOperation
	if newCaret-oldSel.Start > 0 {
		inserted := utils.RuneSlice(newText, oldSel.Start, newCaret)
		if oldSel.End > oldSel.Start {
			op = Replace{Start: oldSel.Start, End: oldSel.End, Text: inserted}
		} else {
			op = Insert{At: oldSel.Start, Text: inserted}
		}
	} else {
		deleted := oldLen - newLen
		if deleted < 0 {
			return nil, fail(fmt.Sprintf("negative deletion count %d", deleted), nil)
		}
		op = Delete{Start: newCaret, End: newCaret + deleted}
	}

	if err := op.Validate(oldLen); err != nil {
		return nil, fail("invalid "+op.String(), err)
	}
	if got := op.ResultLen(oldLen); got != newLen {
		return nil, fail(fmt.Sprintf("%v yields length %d", op, got), nil)
	}
	if applied, err := op.ApplyTo(oldText); err == nil && applied != newText {
		logger.WarnTagf("collab", "inferred %v does not reproduce the observed text", op)
	}
	return op, nil
}

// DiffInferencer finds the common prefix and suffix of the two texts. The
// prefix is capped at the previous selection start and the new caret so that
// runs of repeated characters resolve to where the user actually typed.
type DiffInferencer struct{}

func (DiffInferencer) Infer(oldText, newText string, oldSel types.SelectionRange, newCaret int) (EditOperation, error) {
	if oldText == newText {
		return nil, ErrNoChange
	}
	oldRunes, newRunes := []rune(oldText), []rune(newText)
	limit := min(len(oldRunes), len(newRunes))
	if oldSel.Valid(len(oldRunes)) && newCaret >= 0 && newCaret <= len(newRunes) {
		limit = min(limit, oldSel.Start, newCaret)
	}

	prefix := 0
	for prefix < limit && oldRunes[prefix] == newRunes[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < min(len(oldRunes), len(newRunes))-prefix &&
		oldRunes[len(oldRunes)-1-suffix] == newRunes[len(newRunes)-1-suffix] {
		suffix++
	}

	removedEnd := len(oldRunes) - suffix
	added := string(newRunes[prefix : len(newRunes)-suffix])
	switch {
	case prefix == removedEnd:
		return Insert{At: prefix, Text: added}, nil
	case added == "":
		return Delete{Start: prefix, End: removedEnd}, nil
	default:
		return Replace{Start: prefix, End: removedEnd, Text: added}, nil
	}
}
