package app

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/protocol"
	"github.com/bethropolis/collabmd/internal/server"
	"github.com/bethropolis/collabmd/internal/session"
	"github.com/bethropolis/collabmd/internal/store"
	"github.com/bethropolis/collabmd/internal/theme"
)

const waitFor = 3 * time.Second

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	srv := server.New(config.NewDefaultConfig().Server, store.NewMemory())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// joinAs opens a second editor on the document and drains its events.
func joinAs(t *testing.T, url, docID, user string) (*session.Session, protocol.Message) {
	t.Helper()
	s, welcome, err := session.Dial(context.Background(), session.Config{URL: url, DocID: docID, UserName: user})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		go s.Run(ctx)
		for {
			select {
			case <-s.Events():
			case <-ctx.Done():
				return
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		s.Close()
	})
	return s, welcome
}

func row(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), " ")
}

// editor is a running client on a fresh document that bob has also joined.
type editor struct {
	srv     *server.Server
	bob     *session.Session
	docID   string
	screen  tcell.SimulationScreen
	errc    chan error
	stopped bool
}

func startEditor(t *testing.T) *editor {
	t.Helper()
	srv, url := startServer(t)
	bob, welcome := joinAs(t, url, "", "bob")

	cfg := config.NewDefaultConfig()
	cfg.Session.ServerURL = url
	cfg.Session.UserName = "ada"
	cfg.Editor.SystemClipboard = false

	screen := tcell.NewSimulationScreen("UTF-8")
	a, err := New(cfg, Options{DocID: welcome.DocID, Screen: screen})
	require.NoError(t, err)
	screen.SetSize(80, 6)

	ctx, cancel := context.WithCancel(context.Background())
	e := &editor{srv: srv, bob: bob, docID: welcome.DocID, screen: screen, errc: make(chan error, 1)}
	go func() { e.errc <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if !e.stopped {
			<-e.errc
		}
	})
	return e
}

// waitText waits for the server copy to read text and returns its revision.
func (e *editor) waitText(t *testing.T, text string) int {
	t.Helper()
	var rev int
	require.Eventually(t, func() bool {
		snap, err := e.srv.Hub().Snapshot(context.Background(), e.docID)
		rev = snap.Rev
		return err == nil && snap.Text == text
	}, waitFor, 10*time.Millisecond)
	return rev
}

// remote applies ops from bob and waits for row y to show want.
func (e *editor) remote(t *testing.T, rev int, ops []string, y int, want string) {
	t.Helper()
	require.NoError(t, e.bob.Send(protocol.Update(rev, ops)))
	require.Eventually(t, func() bool { return row(e.screen, y) == want }, waitFor, 10*time.Millisecond)
}

func (e *editor) cursorAt(t *testing.T, x, y int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		cx, cy, visible := e.screen.GetCursor()
		return visible && cx == x && cy == y
	}, waitFor, 10*time.Millisecond)
}

func (e *editor) quit(t *testing.T) {
	t.Helper()
	e.screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	select {
	case err := <-e.errc:
		e.stopped = true
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after quit")
	}
}

func TestEditorRoundTrip(t *testing.T) {
	e := startEditor(t)

	e.screen.InjectKey(tcell.KeyRune, 'h', tcell.ModNone)
	e.screen.InjectKey(tcell.KeyRune, 'i', tcell.ModNone)
	rev := e.waitText(t, "hi")

	// A remote insert before the caret shifts it.
	e.remote(t, rev, []string{"i,0,# "}, 0, "1 # hi")
	e.cursorAt(t, 6, 0)

	assert.Contains(t, row(e.screen, 5), e.docID)

	// Highlighting arrives asynchronously.
	marker := theme.CollabDark.GetStyle("heading.marker")
	heading := theme.CollabDark.GetStyle("heading")
	assert.Eventually(t, func() bool {
		_, _, markerStyle, _ := e.screen.GetContent(2, 0)
		_, _, textStyle, _ := e.screen.GetContent(4, 0)
		return markerStyle == marker && textStyle == heading
	}, waitFor, 10*time.Millisecond)

	e.quit(t)
}

func TestWheelPositionSurvivesRemoteEdit(t *testing.T) {
	e := startEditor(t)
	e.remote(t, 0, []string{"i,0,line one\nline two\nline three"}, 2, "3 line three")

	e.screen.InjectMouse(6, 0, tcell.Button1, tcell.ModNone)
	e.screen.InjectMouse(6, 0, tcell.ButtonNone, tcell.ModNone)
	e.screen.InjectMouse(6, 0, tcell.WheelDown, tcell.ModNone)
	e.screen.InjectMouse(6, 0, tcell.WheelDown, tcell.ModNone)
	e.cursorAt(t, 6, 2)

	// An insert at the start of the caret's line pushes the caret right.
	e.remote(t, 1, []string{"i,18,> "}, 2, "3 > line three")
	e.cursorAt(t, 8, 2)
}

func TestMouseSelection(t *testing.T) {
	e := startEditor(t)
	e.remote(t, 0, []string{"i,0,line one\nline two"}, 1, "2 line two")

	selected := func(from, to int) func() bool {
		sel := theme.CollabDark.GetStyle("Selection")
		return func() bool {
			for x := 2; x < 10; x++ {
				_, _, style, _ := e.screen.GetContent(x, 1)
				if (style == sel) != (x >= from && x < to) {
					return false
				}
			}
			return true
		}
	}

	// Drag from the start of line two.
	e.screen.InjectMouse(2, 1, tcell.Button1, tcell.ModNone)
	e.screen.InjectMouse(6, 1, tcell.Button1, tcell.ModNone)
	e.screen.InjectMouse(6, 1, tcell.ButtonNone, tcell.ModNone)
	assert.Eventually(t, selected(2, 6), waitFor, 10*time.Millisecond)

	// A secondary click leaves the selection alone; Shift+click extends it.
	e.screen.InjectMouse(9, 1, tcell.Button2, tcell.ModNone)
	e.screen.InjectMouse(9, 1, tcell.ButtonNone, tcell.ModNone)
	e.screen.InjectMouse(8, 1, tcell.Button1, tcell.ModShift)
	e.screen.InjectMouse(8, 1, tcell.ButtonNone, tcell.ModNone)
	assert.Eventually(t, selected(2, 8), waitFor, 10*time.Millisecond)

	e.screen.InjectKey(tcell.KeyRune, 'X', tcell.ModNone)
	e.waitText(t, "line one\nXwo")
}

func TestBracketedPasteIsOneEdit(t *testing.T) {
	e := startEditor(t)

	require.NoError(t, e.screen.PostEvent(tcell.NewEventPaste(true)))
	e.screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	e.screen.InjectKey(tcell.KeyRune, 'b', tcell.ModNone)
	e.screen.InjectKey(tcell.KeyEnter, '\r', tcell.ModNone)
	e.screen.InjectKey(tcell.KeyRune, 'c', tcell.ModNone)
	require.NoError(t, e.screen.PostEvent(tcell.NewEventPaste(false)))

	rev := e.waitText(t, "ab\nc")
	assert.Equal(t, 1, rev, "the paste reaches the server as a single update")
	e.cursorAt(t, 3, 1)
}

func TestRunFailsForUnknownDocument(t *testing.T) {
	_, url := startServer(t)

	cfg := config.NewDefaultConfig()
	cfg.Session.ServerURL = url
	cfg.Session.UserName = "ada"
	cfg.Editor.SystemClipboard = false

	a, err := New(cfg, Options{DocID: "missing", Screen: tcell.NewSimulationScreen("UTF-8")})
	require.NoError(t, err)
	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join document")
}

func TestUnknownThemeFallsBack(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Editor.Theme = "no such theme"
	cfg.Editor.SystemClipboard = false

	a, err := New(cfg, Options{Screen: tcell.NewSimulationScreen("UTF-8")})
	require.NoError(t, err)
	defer a.shutdown()
	assert.Equal(t, theme.CollabDark.Name, a.GetTheme().Name)

	require.NoError(t, a.SetTheme("collab light"))
	assert.Equal(t, theme.CollabLight.Name, a.GetTheme().Name)
	assert.Error(t, a.SetTheme("missing"))
}
