package collab

import (
	"fmt"

	"github.com/bethropolis/collabmd/internal/utils"
)

// EditOperation is one of Insert, Replace or Delete. Offsets are rune offsets.
type EditOperation interface {
	// Validate checks the operation against a text of the given rune length.
	Validate(length int) error
	// ApplyTo returns text with the operation applied.
	ApplyTo(text string) (string, error)
	// ResultLen returns the rune length after applying to a text of length.
	ResultLen(length int) int
	String() string

	isEditOperation()
}

// Insert places Text at offset At.
type Insert struct {
	At   int
	Text string
}

// Replace substitutes the runes in [Start, End) with Text.
type Replace struct {
	Start int
	End   int
	Text  string
}

// Delete removes the runes in [Start, End).
type Delete struct {
	Start int
	End   int
}

func (Insert) isEditOperation()  {}
func (Replace) isEditOperation() {}
func (Delete) isEditOperation()  {}

func validRange(start, end, length int) error {
	if start < 0 || end > length || start > end {
		return fmt.Errorf("[%d,%d) in text of length %d: %w", start, end, length, ErrOutOfRange)
	}
	if start == end {
		return fmt.Errorf("[%d,%d): %w", start, end, ErrEmptyEdit)
	}
	return nil
}

func (op Insert) Validate(length int) error {
	if op.At < 0 || op.At > length {
		return fmt.Errorf("insert at %d in text of length %d: %w", op.At, length, ErrOutOfRange)
	}
	if op.Text == "" {
		return fmt.Errorf("insert at %d: %w", op.At, ErrEmptyEdit)
	}
	return nil
}

func (op Replace) Validate(length int) error {
	return validRange(op.Start, op.End, length)
}

func (op Delete) Validate(length int) error {
	return validRange(op.Start, op.End, length)
}

func (op Insert) ApplyTo(text string) (string, error) {
	if err := op.Validate(utils.RuneLen(text)); err != nil {
		return "", err
	}
	at := utils.RuneIndexToByteOffset(text, op.At)
	return text[:at] + op.Text + text[at:], nil
}

func (op Replace) ApplyTo(text string) (string, error) {
	if err := op.Validate(utils.RuneLen(text)); err != nil {
		return "", err
	}
	from := utils.RuneIndexToByteOffset(text, op.Start)
	to := utils.RuneIndexToByteOffset(text, op.End)
	return text[:from] + op.Text + text[to:], nil
}

func (op Delete) ApplyTo(text string) (string, error) {
	if err := op.Validate(utils.RuneLen(text)); err != nil {
		return "", err
	}
	from := utils.RuneIndexToByteOffset(text, op.Start)
	to := utils.RuneIndexToByteOffset(text, op.End)
	return text[:from] + text[to:], nil
}

func (op Insert) ResultLen(length int) int {
	return length + utils.RuneLen(op.Text)
}

func (op Replace) ResultLen(length int) int {
	return length - (op.End - op.Start) + utils.RuneLen(op.Text)
}

func (op Delete) ResultLen(length int) int {
	return length - (op.End - op.Start)
}

func (op Insert) String() string {
	return fmt.Sprintf("Insert{%d, %q}", op.At, op.Text)
}

func (op Replace) String() string {
	return fmt.Sprintf("Replace{%d, %d, %q}", op.Start, op.End, op.Text)
}

func (op Delete) String() string {
	return fmt.Sprintf("Delete{%d, %d}", op.Start, op.End)
}
