package statusbar

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/theme"
	"github.com/bethropolis/collabmd/internal/types"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

// line returns the text of screen row y.
func line(screen tcell.SimulationScreen, y int) string {
	screen.Show()
	cells, w, _ := screen.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		cell := cells[y*w+x]
		if len(cell.Runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteString(string(cell.Runes))
	}
	return b.String()
}

func TestDrawStatus(t *testing.T) {
	screen := newScreen(t, 80, 3)
	cfg := ConfigFromTheme(theme.CollabDark)
	sb := New(cfg)
	sb.SetDocument("doc-1", "ada")
	sb.SetConnection(event.Connected)
	sb.SetUsers([]string{"ada", "grace"})
	sb.SetCursorInfo(types.Position{Line: 2, Col: 4}, 3)
	sb.SetPending(1)

	sb.Draw(screen, 80, 3)
	got := line(screen, 2)
	assert.True(t, strings.HasPrefix(got, " connected  doc-1 as ada  [ada, grace]"), got)
	assert.True(t, strings.HasSuffix(got, "1 unsent  (3 selected) Ln 3, Col 5 "), got)

	_, _, style, _ := screen.GetContent(1, 2)
	assert.Equal(t, cfg.StyleConnected, style)
	_, _, style, _ = screen.GetContent(79, 2)
	assert.Equal(t, cfg.StyleDefault, style)
}

func TestDrawNarrowDropsRightSide(t *testing.T) {
	screen := newScreen(t, 20, 1)
	sb := New(ConfigFromTheme(theme.CollabDark))
	sb.SetConnection(event.Disconnected)
	sb.Draw(screen, 20, 1)
	assert.Equal(t, " disconnected  [new ", line(screen, 0))
}

func TestTemporaryMessageExpires(t *testing.T) {
	screen := newScreen(t, 40, 1)
	cfg := ConfigFromTheme(theme.CollabDark)
	sb := New(cfg)
	now := time.Unix(1000, 0)
	sb.now = func() time.Time { return now }

	sb.SetTemporaryMessage("rejoined %s", "doc-1")
	sb.Draw(screen, 40, 1)
	assert.True(t, strings.HasPrefix(line(screen, 0), " rejoined doc-1"))
	_, _, style, _ := screen.GetContent(39, 0)
	assert.Equal(t, cfg.StyleMessage, style)

	now = now.Add(cfg.MessageTimeout + time.Second)
	sb.Draw(screen, 40, 1)
	assert.True(t, strings.HasPrefix(line(screen, 0), " disconnected "))
}

func TestItemsSortedBeforeCaret(t *testing.T) {
	screen := newScreen(t, 80, 1)
	sb := New(ConfigFromTheme(theme.CollabDark))
	sb.SetItem("wordcount", "12 words")
	sb.SetItem("autosave", "saved")
	sb.SetItem("gone", "x")
	sb.SetItem("gone", "")

	sb.Draw(screen, 80, 1)
	assert.True(t, strings.HasSuffix(line(screen, 0), "saved  12 words  Ln 1, Col 1 "), line(screen, 0))
}
