package ot

// transformInsertDelete derives the bottom two sides of the OT diamond, where
// the top two sides are an insert and a delete.
func transformInsertDelete(a *Insert, b *Delete) (ap, bp Op) {
	if a.Pos <= b.Pos {
		// Insert before delete. Delete shifts forward.
		return a, &Delete{b.Pos + a.Len(), b.Len}
	} else if a.Pos >= b.Pos+b.Len {
		// Insert after delete. Insert shifts backward.
		return &Insert{a.Pos - b.Len, a.Value}, b
	}
	// Insert inside the delete range. Delete expands to include the insert,
	// and insert collapses to nothing.
	return &Insert{b.Pos, ""}, &Delete{b.Pos, b.Len + a.Len()}
}

// Transform derives the bottom two sides of the OT diamond: it transforms
// (a, b) into (a', b') such that applying a then b' equals applying b then a'.
// b takes priority over a for insert-insert ties.
func Transform(a, b Op) (ap, bp Op) {
	switch ai := a.(type) {
	case *Insert:
		switch bi := b.(type) {
		case *Insert:
			// When insert positions are equal, a' shifts forward.
			if bi.Pos <= ai.Pos {
				return &Insert{ai.Pos + bi.Len(), ai.Value}, b
			}
			return a, &Insert{bi.Pos + ai.Len(), bi.Value}
		case *Delete:
			return transformInsertDelete(ai, bi)
		}
	case *Delete:
		switch bi := b.(type) {
		case *Insert:
			ins, del := transformInsertDelete(bi, ai)
			return del, ins
		case *Delete:
			aEnd, bEnd := ai.Pos+ai.Len, bi.Pos+bi.Len
			if aEnd <= bi.Pos {
				return a, &Delete{bi.Pos - ai.Len, bi.Len}
			} else if bEnd <= ai.Pos {
				return &Delete{ai.Pos - bi.Len, ai.Len}, b
			}
			// Deletions overlap.
			pos := min(ai.Pos, bi.Pos)
			overlap := max(0, min(aEnd, bEnd)-max(ai.Pos, bi.Pos))
			return &Delete{pos, ai.Len - overlap}, &Delete{pos, bi.Len - overlap}
		}
	}
	return a, b
}

// TransformPatch is Transform for op sequences. b takes priority over a.
func TransformPatch(a, b []Op) (ap, bp []Op) {
	aNew, bNew := make([]Op, len(a)), make([]Op, len(b))
	copy(aNew, a)
	for i, bOp := range b {
		for j, aOp := range aNew {
			aNew[j], bOp = Transform(aOp, bOp)
		}
		bNew[i] = bOp
	}
	return aNew, bNew
}
