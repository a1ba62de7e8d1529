package collab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/collab"
	"github.com/bethropolis/collabmd/internal/ot"
	"github.com/bethropolis/collabmd/internal/types"
)

func remoteChange(ops ...ot.Op) collab.ChangeNotification {
	return collab.ChangeNotification{TransformPosition: ot.PatchTransform(ops)}
}

func TestReconcileRemote(t *testing.T) {
	tests := []struct {
		name     string
		baseline types.SelectionRange
		ops      []ot.Op
		textLen  int
		want     types.SelectionRange
	}{
		{"insert before caret", types.Caret(6), []ot.Op{&ot.Insert{Pos: 0, Value: "XX"}}, 13, types.Caret(8)},
		{"insert at caret", types.Caret(6), []ot.Op{&ot.Insert{Pos: 6, Value: "XX"}}, 13, types.Caret(6)},
		{"insert after caret", types.Caret(6), []ot.Op{&ot.Insert{Pos: 9, Value: "XX"}}, 13, types.Caret(6)},
		{"insert inside selection", types.SelectionRange{Start: 2, End: 6}, []ot.Op{&ot.Insert{Pos: 4, Value: "XX"}}, 13, types.SelectionRange{Start: 2, End: 8}},
		{"delete before", types.SelectionRange{Start: 6, End: 8}, []ot.Op{&ot.Delete{Pos: 0, Len: 3}}, 8, types.SelectionRange{Start: 3, End: 5}},
		{"delete covering caret", types.Caret(5), []ot.Op{&ot.Delete{Pos: 3, Len: 4}}, 7, types.Caret(3)},
		{"identity", types.SelectionRange{Start: 1, End: 4}, nil, 11, types.SelectionRange{Start: 1, End: 4}},
		{"backward selection", types.SelectionRange{Start: 2, End: 6, Backward: true}, []ot.Op{&ot.Insert{Pos: 0, Value: "XX"}}, 13, types.SelectionRange{Start: 4, End: 8, Backward: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSurface{text: string(make([]rune, tt.textLen))}
			got, err := collab.Reconcile(tt.baseline, remoteChange(tt.ops...), s, tt.textLen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Selection())
		})
	}
}

func TestReconcileRemoteComposes(t *testing.T) {
	// "hello world" -> "> hello world" -> "> hello"
	first := []ot.Op{&ot.Insert{Pos: 0, Value: "> "}}
	second := []ot.Op{&ot.Delete{Pos: 7, Len: 6}}
	base := types.SelectionRange{Start: 2, End: 9}

	stepwise := &fakeSurface{text: "> hello"}
	got, err := collab.Reconcile(base, remoteChange(first...), stepwise, 13)
	require.NoError(t, err)
	assert.Equal(t, types.SelectionRange{Start: 4, End: 11}, got)
	got, err = collab.Reconcile(got, remoteChange(second...), stepwise, 7)
	require.NoError(t, err)

	once := &fakeSurface{text: "> hello"}
	composed := collab.ChangeNotification{TransformPosition: ot.Compose(ot.PatchTransform(first), ot.PatchTransform(second))}
	want, err := collab.Reconcile(base, composed, once, 7)
	require.NoError(t, err)

	assert.Equal(t, types.SelectionRange{Start: 4, End: 7}, want)
	assert.Equal(t, want, got)
	assert.Equal(t, once.Selection(), stepwise.Selection())
}

func TestReconcileMissingTransformIsIdentity(t *testing.T) {
	s := &fakeSurface{text: "hello world"}
	base := types.SelectionRange{Start: 2, End: 7}

	got, err := collab.Reconcile(base, collab.ChangeNotification{}, s, 11)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestReconcileLocalRereadsSurface(t *testing.T) {
	s := &fakeSurface{text: "hello!", sel: types.Caret(6)}
	n := collab.ChangeNotification{IsLocal: true, TransformPosition: func(p int) int { return p + 100 }}

	got, err := collab.Reconcile(types.Caret(5), n, s, 6)
	require.NoError(t, err)
	assert.Equal(t, types.Caret(6), got)
	assert.Equal(t, types.Caret(6), s.Selection())
}

func TestReconcileClampsOutOfRange(t *testing.T) {
	s := &fakeSurface{text: "abc"}
	n := collab.ChangeNotification{TransformPosition: func(p int) int { return p + 10 }}

	got, err := collab.Reconcile(types.SelectionRange{Start: 0, End: 1}, n, s, 3)
	assert.Equal(t, types.Caret(3), got)
	var te *collab.TransformError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, collab.ErrTransform)
	assert.Equal(t, types.SelectionRange{Start: 10, End: 11}, te.Transformed)
}
