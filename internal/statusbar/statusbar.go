package statusbar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/theme"
	"github.com/bethropolis/collabmd/internal/types"
)

// Config defines the appearance of the status bar.
type Config struct {
	StyleDefault      tcell.Style
	StyleMessage      tcell.Style
	StyleConnected    tcell.Style
	StyleConnecting   tcell.Style
	StyleDisconnected tcell.Style
	StyleUsers        tcell.Style
	MessageTimeout    time.Duration
}

// ConfigFromTheme takes the StatusBar* styles of a theme.
func ConfigFromTheme(t *theme.Theme) Config {
	return Config{
		StyleDefault:      t.GetStyle("StatusBar"),
		StyleMessage:      t.GetStyle("StatusBarMessage"),
		StyleConnected:    t.GetStyle("StatusBarConnected"),
		StyleConnecting:   t.GetStyle("StatusBarConnecting"),
		StyleDisconnected: t.GetStyle("StatusBarDisconnected"),
		StyleUsers:        t.GetStyle("StatusBarUsers"),
		MessageTimeout:    config.MessageTimeout,
	}
}

// StatusBar is the last screen line: connection state, document, editors and caret.
type StatusBar struct {
	config Config
	mu     sync.Mutex

	docID     string
	userName  string
	state     event.ConnectionState
	users     []string
	caret     types.Position
	selection int
	pending   int
	items     map[string]string // set by plugins, drawn on the right

	tempMessage     string
	tempMessageTime time.Time
	now             func() time.Time
}

func New(cfg Config) *StatusBar {
	return &StatusBar{config: cfg, now: time.Now}
}

// SetConfig swaps styles, e.g. after a theme change.
func (sb *StatusBar) SetConfig(cfg Config) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.config = cfg
}

func (sb *StatusBar) SetDocument(docID, userName string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.docID = docID
	sb.userName = userName
}

func (sb *StatusBar) SetConnection(state event.ConnectionState) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.state = state
}

func (sb *StatusBar) SetUsers(users []string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.users = append(sb.users[:0], users...)
}

// SetCursorInfo updates the caret position and selected rune count.
func (sb *StatusBar) SetCursorInfo(pos types.Position, selected int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.caret = pos
	sb.selection = selected
}

// SetPending shows how many local operations await acknowledgement.
func (sb *StatusBar) SetPending(n int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.pending = n
}

// SetItem shows text on the right of the bar until replaced. An empty text
// removes the item.
func (sb *StatusBar) SetItem(name, text string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if text == "" {
		delete(sb.items, name)
		return
	}
	if sb.items == nil {
		sb.items = make(map[string]string)
	}
	sb.items[name] = text
}

// SetTemporaryMessage displays a message for the configured timeout.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = sb.now()
}

func (sb *StatusBar) ResetTemporaryMessage() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
}

// segment is a run of status text drawn in one style.
type segment struct {
	text  string
	style tcell.Style
}

// segments builds the left and right parts of the line. Caller holds mu.
func (sb *StatusBar) segments() (left []segment, right string) {
	stateStyle := sb.config.StyleDisconnected
	switch sb.state {
	case event.Connected:
		stateStyle = sb.config.StyleConnected
	case event.Connecting:
		stateStyle = sb.config.StyleConnecting
	}

	doc := sb.docID
	if doc == "" {
		doc = "[new document]"
	}
	left = append(left,
		segment{fmt.Sprintf(" %s ", sb.state), stateStyle},
		segment{fmt.Sprintf(" %s as %s", doc, sb.userName), sb.config.StyleDefault},
	)
	if len(sb.users) > 0 {
		left = append(left, segment{fmt.Sprintf("  [%s]", strings.Join(sb.users, ", ")), sb.config.StyleUsers})
	}

	right = fmt.Sprintf("Ln %d, Col %d", sb.caret.Line+1, sb.caret.Col+1)
	if sb.selection > 0 {
		right = fmt.Sprintf("(%d selected) %s", sb.selection, right)
	}
	if len(sb.items) > 0 {
		names := make([]string, 0, len(sb.items))
		for name := range sb.items {
			names = append(names, name)
		}
		sort.Strings(names)
		for i := len(names) - 1; i >= 0; i-- {
			right = sb.items[names[i]] + "  " + right
		}
	}
	if sb.pending > 0 {
		right = fmt.Sprintf("%d unsent  %s", sb.pending, right)
	}
	return left, right + " "
}

// Draw renders the status bar on the last line of the screen.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	sb.mu.Lock()
	active := !sb.tempMessageTime.IsZero() && sb.now().Sub(sb.tempMessageTime) <= sb.config.MessageTimeout
	if !sb.tempMessageTime.IsZero() && !active {
		sb.tempMessage = ""
		sb.tempMessageTime = time.Time{}
	}
	var left []segment
	var right string
	if active {
		left = []segment{{" " + sb.tempMessage, sb.config.StyleMessage}}
	} else {
		left, right = sb.segments()
	}
	base := sb.config.StyleDefault
	if active {
		base = sb.config.StyleMessage
	}
	sb.mu.Unlock()

	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, base)
	}

	x := 0
	for _, seg := range left {
		x = drawText(screen, x, y, width, seg.text, seg.style)
	}
	if right != "" {
		if start := width - uniseg.StringWidth(right); start > x {
			drawText(screen, start, y, width, right, base)
		}
	}
}

// drawText draws text from column x and returns the column after it.
// Grapheme clusters that do not fit before limit are dropped.
func drawText(screen tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		w := gr.Width()
		if x+w > limit {
			break
		}
		runes := gr.Runes()
		screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}
