// Package ot implements insert/delete operations over rune-indexed text, the
// classic pairwise transform used to rebase concurrent operations, and the
// position transforms used to move carets across applied operations.
package ot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bethropolis/collabmd/internal/utils"
)

// ErrOutOfBounds is returned when an operation does not fit the text it is applied to.
var ErrOutOfBounds = errors.New("operation out of bounds")

// Op is an operation.
type Op interface {
	Encode() string
	Apply(s string) (string, error)
	String() string
}

// Insert represents a text insertion at rune offset Pos.
type Insert struct {
	Pos   int
	Value string
}

func (op *Insert) Encode() string {
	return fmt.Sprintf("i,%d,%s", op.Pos, op.Value)
}

func (op *Insert) Apply(s string) (string, error) {
	if op.Pos < 0 || op.Pos > utils.RuneLen(s) {
		return "", fmt.Errorf("insert at %d: %w", op.Pos, ErrOutOfBounds)
	}
	at := utils.RuneIndexToByteOffset(s, op.Pos)
	return s[:at] + op.Value + s[at:], nil
}

func (op *Insert) String() string {
	return fmt.Sprintf("Insert{%d, %q}", op.Pos, op.Value)
}

// Len returns the number of inserted runes.
func (op *Insert) Len() int {
	return utils.RuneLen(op.Value)
}

// Delete represents the removal of Len runes starting at Pos.
type Delete struct {
	Pos int
	Len int
}

func (op *Delete) Encode() string {
	return fmt.Sprintf("d,%d,%d", op.Pos, op.Len)
}

func (op *Delete) Apply(s string) (string, error) {
	if op.Pos < 0 || op.Len < 0 || op.Pos+op.Len > utils.RuneLen(s) {
		return "", fmt.Errorf("delete [%d,%d): %w", op.Pos, op.Pos+op.Len, ErrOutOfBounds)
	}
	from := utils.RuneIndexToByteOffset(s, op.Pos)
	to := utils.RuneIndexToByteOffset(s, op.Pos+op.Len)
	return s[:from] + s[to:], nil
}

func (op *Delete) String() string {
	return fmt.Sprintf("Delete{%d, %d}", op.Pos, op.Len)
}

// DecodeOp returns an Op given an encoded op.
func DecodeOp(s string) (Op, error) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("failed to parse op: %q", s)
	}
	pos, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to parse op position %q: %w", s, err)
	}
	switch parts[0] {
	case "i":
		return &Insert{Pos: pos, Value: parts[2]}, nil
	case "d":
		length, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("failed to parse delete length %q: %w", s, err)
		}
		return &Delete{Pos: pos, Len: length}, nil
	default:
		return nil, fmt.Errorf("unknown op type: %q", parts[0])
	}
}

func EncodeOps(ops []Op) []string {
	strs := make([]string, len(ops))
	for i, v := range ops {
		strs[i] = v.Encode()
	}
	return strs
}

func DecodeOps(strs []string) ([]Op, error) {
	ops := make([]Op, len(strs))
	for i, v := range strs {
		op, err := DecodeOp(v)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}

// ApplyPatch applies ops in order.
func ApplyPatch(s string, ops []Op) (string, error) {
	for _, op := range ops {
		var err error
		if s, err = op.Apply(s); err != nil {
			return "", err
		}
	}
	return s, nil
}
