package ot

// TransformPosition maps an offset valid before op to the matching offset after it.
//   - insert at or after pos: unchanged (the caret stays in front of remote text)
//   - insert before pos: shifted right by the inserted length
//   - delete entirely before pos: shifted left by the deleted length
//   - pos inside the deleted range: clamped to the range start
func TransformPosition(op Op, pos int) int {
	switch o := op.(type) {
	case *Insert:
		if pos <= o.Pos {
			return pos
		}
		return pos + o.Len()
	case *Delete:
		if pos <= o.Pos {
			return pos
		}
		if pos >= o.Pos+o.Len {
			return pos - o.Len
		}
		return o.Pos
	}
	return pos
}

// PatchTransform returns the position map of applying ops in order.
func PatchTransform(ops []Op) func(int) int {
	steps := make([]func(int) int, len(ops))
	for i, op := range ops {
		steps[i] = func(pos int) int { return TransformPosition(op, pos) }
	}
	return Compose(steps...)
}

// Compose chains position maps; the result applies them left to right.
func Compose(fns ...func(int) int) func(int) int {
	return func(pos int) int {
		for _, fn := range fns {
			pos = fn(pos)
		}
		return pos
	}
}
