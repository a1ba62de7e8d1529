package surface_test

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/collab"
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/ot"
	"github.com/bethropolis/collabmd/internal/protocol"
	"github.com/bethropolis/collabmd/internal/sharedtext"
	"github.com/bethropolis/collabmd/internal/surface"
	"github.com/bethropolis/collabmd/internal/types"
)

type outbox struct{ sent []protocol.Message }

func (o *outbox) Connected() bool { return true }

func (o *outbox) Send(msg protocol.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

func bind(t *testing.T, text string) (*surface.Surface, *sharedtext.SharedString, *outbox) {
	t.Helper()
	out := &outbox{}
	doc := sharedtext.New(event.NewManager(), out)
	doc.Reset("me", 0, text)

	s := surface.New(surface.Options{})
	b := collab.NewBinding(doc, s)
	s.SetListener(surface.Listener{
		BeforeInput: b.CaptureSelection,
		KeyDown:     b.CaptureSelection,
		KeyUp:       b.CaptureSelection,
		Click:       b.CaptureSelection,
		ContextMenu: b.CaptureSelection,
		Select:      b.CaptureSelection,
		Change: func(string, string) {
			assert.NoError(t, b.HandleChange())
		},
	})
	require.NoError(t, b.Activate())
	t.Cleanup(b.Deactivate)
	return s, doc, out
}

func TestKeystrokesReachTheSharedText(t *testing.T) {
	s, doc, out := bind(t, "# title")
	assert.Equal(t, "# title", s.Text())

	s.SetSelection(types.Caret(7))
	s.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	s.HandleKey(tcell.NewEventKey(tcell.KeyRune, '-', tcell.ModNone))
	assert.Equal(t, "# title\n-", doc.GetText())

	s.HandleKey(tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModShift))
	s.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	assert.Equal(t, "# title\n", doc.GetText())

	require.NotEmpty(t, out.sent)
	assert.Equal(t, []string{"i,7,\n"}, out.sent[0].Ops)
}

func TestRemoteEditMovesTheCaret(t *testing.T) {
	s, doc, _ := bind(t, "hello world")
	s.Click(types.Position{Line: 0, Col: 6}, false)
	s.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModShift))

	require.NoError(t, doc.Receive(protocol.Change(1, "other", ot.EncodeOps([]ot.Op{&ot.Insert{Pos: 0, Value: ">> "}}))))
	assert.Equal(t, ">> hello world", s.Text())
	assert.Equal(t, types.SelectionRange{Start: 9, End: 10}, s.Selection())

	// Typing over the moved selection replaces the right range.
	s.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'W', tcell.ModShift))
	assert.Equal(t, ">> hello World", doc.GetText())
}

func TestWheelMovesSurviveRemoteEdits(t *testing.T) {
	s, doc, _ := bind(t, "line one\nline two\nline three")
	s.Click(types.Position{Line: 0, Col: 4}, false)
	s.Perform(surface.ActionEvent{Action: surface.ActionMoveDown})
	s.Perform(surface.ActionEvent{Action: surface.ActionMoveDown})
	require.Equal(t, types.Caret(22), s.Selection())

	require.NoError(t, doc.Receive(protocol.Change(1, "other", ot.EncodeOps([]ot.Op{&ot.Insert{Pos: 0, Value: "# "}}))))
	assert.Equal(t, types.Caret(24), s.Selection())
}

func TestRemoteEditKeepsSelectionDirection(t *testing.T) {
	s, doc, _ := bind(t, "hello world!")
	s.SetSelection(types.Caret(8))
	s.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift))
	s.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift))

	require.NoError(t, doc.Receive(protocol.Change(1, "other", ot.EncodeOps([]ot.Op{&ot.Insert{Pos: 11, Value: "?"}}))))
	assert.Equal(t, types.SelectionRange{Start: 6, End: 8, Backward: true}, s.Selection())
	assert.Equal(t, 6, s.Head())

	s.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift))
	assert.Equal(t, types.SelectionRange{Start: 5, End: 8, Backward: true}, s.Selection())
}
