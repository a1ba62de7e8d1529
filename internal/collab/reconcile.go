package collab

import (
	"github.com/bethropolis/collabmd/internal/types"
)

// ChangeNotification is delivered by the shared sequence after every change.
// TransformPosition maps an offset in the text before the change to the text
// after it; it is only meaningful for remote changes.
type ChangeNotification struct {
	IsLocal           bool
	TransformPosition func(int) int
}

// SelectionSurface is the part of the editing surface that holds a selection.
type SelectionSurface interface {
	Selection() types.SelectionRange
	SetSelection(types.SelectionRange)
}

// Reconcile returns the selection to store after n.
//
// Local changes already moved the surface caret, so the surface is re-read.
// Remote changes move both ends of baseline through n.TransformPosition,
// keeping its direction; the result is clamped to [0, textLen], written to
// the surface, and read back. A non-nil
// *TransformError reports that clamping was needed; the returned selection is
// valid either way.
func Reconcile(baseline types.SelectionRange, n ChangeNotification, surface SelectionSurface, textLen int) (types.SelectionRange, error) {
	if n.IsLocal {
		return surface.Selection(), nil
	}
	moved := baseline
	if n.TransformPosition != nil {
		moved = types.SelectionRange{
			Start:    n.TransformPosition(baseline.Start),
			End:      n.TransformPosition(baseline.End),
			Backward: baseline.Backward,
		}
	}
	clamped, changed := moved.Clamp(textLen)
	surface.SetSelection(clamped)

	var err error
	if changed {
		err = &TransformError{Transformed: moved, Clamped: clamped, Length: textLen}
	}
	return surface.Selection(), err
}
