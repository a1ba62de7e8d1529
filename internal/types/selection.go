package types

import "fmt"

// SelectionRange is a pair of zero-based rune offsets into the current text.
// Start == End is a caret.
type SelectionRange struct {
	Start int
	End   int
	// Backward is set when the caret sits at Start rather than End.
	Backward bool
}

// Caret returns a zero-width selection at offset.
func Caret(offset int) SelectionRange {
	return SelectionRange{Start: offset, End: offset}
}

// IsCaret reports whether the selection is empty.
func (s SelectionRange) IsCaret() bool {
	return s.Start == s.End
}

// Len returns the number of selected runes. Undefined for unnormalized ranges.
func (s SelectionRange) Len() int {
	return s.End - s.Start
}

// Normalize returns the range with Start <= End. Swapping the ends flips
// Backward, so an anchor/head pair normalizes to its direction.
func (s SelectionRange) Normalize() SelectionRange {
	if s.Start > s.End {
		return SelectionRange{Start: s.End, End: s.Start, Backward: !s.Backward}
	}
	return s
}

// Anchor is the fixed end of the selection.
func (s SelectionRange) Anchor() int {
	if s.Backward {
		return s.End
	}
	return s.Start
}

// Head is the end the caret is drawn at.
func (s SelectionRange) Head() int {
	if s.Backward {
		return s.Start
	}
	return s.End
}

// Valid reports whether 0 <= Start <= End <= length.
func (s SelectionRange) Valid(length int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= length
}

// Clamp normalizes the range and limits both offsets to [0, length].
// The second result reports whether anything had to change.
func (s SelectionRange) Clamp(length int) (SelectionRange, bool) {
	out := s.Normalize()
	out.Start = min(max(out.Start, 0), length)
	out.End = min(max(out.End, 0), length)
	return out, out != s
}

func (s SelectionRange) String() string {
	if s.Backward {
		return fmt.Sprintf("[%d,%d]<", s.Start, s.End)
	}
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}
