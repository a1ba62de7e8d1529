// Package surface is a plain-text textarea: one string, a selection given by
// anchor and head, and listener hooks fired in the order a browser fires them.
package surface

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/types"
	"github.com/bethropolis/collabmd/internal/utils"
)

// Listener receives surface events. Nil hooks are skipped.
// KeyDown and BeforeInput fire before the text changes; Change and then
// KeyUp fire after. Select fires when an action moves the selection without
// editing, whether or not a key started it.
type Listener struct {
	BeforeInput func()
	KeyDown     func()
	KeyUp       func()
	Click       func()
	ContextMenu func()
	Select      func()
	Change      func(oldText, newText string)
}

// Options configures a Surface.
type Options struct {
	TabWidth  int
	PageSize  int // lines moved by PgUp/PgDn
	Clipboard Clipboard
}

// Surface holds the text being edited. Offsets are rune offsets.
type Surface struct {
	text     []rune
	anchor   int
	head     int
	goalCol  int // column kept across vertical moves, -1 when unset
	tabWidth int
	pageSize int

	clipboard Clipboard
	input     *InputProcessor
	listener  Listener
}

func New(opts Options) *Surface {
	if opts.TabWidth <= 0 {
		opts.TabWidth = config.DefaultTabWidth
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1
	}
	if opts.Clipboard == nil {
		opts.Clipboard = &MemoryClipboard{}
	}
	return &Surface{
		goalCol:   -1,
		tabWidth:  opts.TabWidth,
		pageSize:  opts.PageSize,
		clipboard: opts.Clipboard,
		input:     NewInputProcessor(),
	}
}

// SetListener replaces the current listener.
func (s *Surface) SetListener(l Listener) { s.listener = l }

func (s *Surface) Text() string { return string(s.text) }

// SetText replaces the content without firing Change. The selection is kept
// where it still fits and clamped otherwise.
func (s *Surface) SetText(text string) {
	s.text = []rune(text)
	n := len(s.text)
	s.anchor = utils.Clamp(s.anchor, 0, n)
	s.head = utils.Clamp(s.head, 0, n)
}

// Selection returns the normalized selection. Backward is set when the head
// is before the anchor.
func (s *Surface) Selection() types.SelectionRange {
	return types.SelectionRange{Start: s.anchor, End: s.head}.Normalize()
}

// SetSelection moves the selection, clamped to the text. It fires no hook.
func (s *Surface) SetSelection(r types.SelectionRange) {
	r, _ = r.Clamp(len(s.text))
	s.anchor, s.head = r.Anchor(), r.Head()
	s.goalCol = -1
}

// Head is the end of the selection the caret is drawn at.
func (s *Surface) Head() int { return s.head }

func (s *Surface) TabWidth() int { return s.tabWidth }

func (s *Surface) SetPageSize(lines int) {
	if lines > 0 {
		s.pageSize = lines
	}
}

// Lines splits the text on newlines. There is always at least one line.
func (s *Surface) Lines() []string {
	return strings.Split(string(s.text), "\n")
}

// PositionOf converts a rune offset to a line and column.
func (s *Surface) PositionOf(offset int) types.Position {
	offset = utils.Clamp(offset, 0, len(s.text))
	var pos types.Position
	for _, r := range s.text[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Col = 0
			continue
		}
		pos.Col++
	}
	return pos
}

// OffsetAt converts a line and column to a rune offset. Lines past the end
// map to the end of the text and columns past a line end to that line end.
func (s *Surface) OffsetAt(pos types.Position) int {
	if pos.Line < 0 {
		return 0
	}
	line := 0
	start := 0
	for i, r := range s.text {
		if line == pos.Line {
			break
		}
		if r == '\n' {
			line++
			start = i + 1
		}
	}
	if line < pos.Line {
		return len(s.text)
	}
	end := s.lineEnd(start)
	return start + utils.Clamp(pos.Col, 0, end-start)
}

// HandleKey decodes and performs a key event. KeyDown fires for every
// recognised key before anything changes. ActionQuit and ActionNextTheme are
// returned to the caller without being performed.
func (s *Surface) HandleKey(ev *tcell.EventKey) Action {
	ae := s.input.ProcessEvent(ev)
	if ae.Action == ActionUnknown {
		return ActionUnknown
	}
	fire(s.listener.KeyDown)
	if ae.Action.external() {
		return ae.Action
	}
	s.Perform(ae)
	fire(s.listener.KeyUp)
	return ae.Action
}

// Perform runs one action, firing BeforeInput before editing actions, Change
// when the text actually changed and Select when only the selection moved.
func (s *Surface) Perform(ae ActionEvent) {
	if ae.Action.mutates() {
		fire(s.listener.BeforeInput)
	}
	old := string(s.text)
	oldAnchor, oldHead := s.anchor, s.head

	switch ae.Action {
	case ActionMoveLeft:
		if !ae.Extend && s.anchor != s.head {
			s.moveTo(s.Selection().Start, false)
		} else {
			s.moveTo(s.head-1, ae.Extend)
		}
	case ActionMoveRight:
		if !ae.Extend && s.anchor != s.head {
			s.moveTo(s.Selection().End, false)
		} else {
			s.moveTo(s.head+1, ae.Extend)
		}
	case ActionMoveUp:
		s.moveLines(-1, ae.Extend)
	case ActionMoveDown:
		s.moveLines(1, ae.Extend)
	case ActionMovePageUp:
		s.moveLines(-s.pageSize, ae.Extend)
	case ActionMovePageDown:
		s.moveLines(s.pageSize, ae.Extend)
	case ActionMoveHome:
		s.moveTo(s.lineStart(s.head), ae.Extend)
	case ActionMoveEnd:
		s.moveTo(s.lineEnd(s.head), ae.Extend)
	case ActionSelectAll:
		s.anchor, s.head = 0, len(s.text)
		s.goalCol = -1

	case ActionInsertRune:
		s.replaceSelection([]rune{ae.Rune})
	case ActionInsertNewLine:
		s.replaceSelection([]rune{'\n'})
	case ActionInsertTab:
		s.replaceSelection([]rune{'\t'})
	case ActionDeleteCharBackward:
		if s.anchor == s.head && s.head > 0 {
			s.anchor = s.head - 1
		}
		s.replaceSelection(nil)
	case ActionDeleteCharForward:
		if s.anchor == s.head && s.head < len(s.text) {
			s.anchor = s.head + 1
		}
		s.replaceSelection(nil)

	case ActionCopy:
		s.copySelection()
	case ActionCut:
		if s.copySelection() {
			s.replaceSelection(nil)
		}
	case ActionPaste:
		text, err := s.clipboard.ReadText()
		if err != nil {
			logger.WarnTagf("surface", "paste failed: %v", err)
			break
		}
		if text != "" {
			s.replaceSelection([]rune(normalizeNewlines(text)))
		}
	}

	if string(s.text) == old {
		if s.anchor != oldAnchor || s.head != oldHead {
			fire(s.listener.Select)
		}
		return
	}
	s.changed(old)
}

// InsertText replaces the selection with text as if typed, e.g. for a
// bracketed paste from the terminal.
func (s *Surface) InsertText(text string) {
	fire(s.listener.BeforeInput)
	old := string(s.text)
	s.replaceSelection([]rune(normalizeNewlines(text)))
	s.changed(old)
}

// Click places the caret at pos, or extends the selection to it.
func (s *Surface) Click(pos types.Position, extend bool) {
	s.moveTo(s.OffsetAt(pos), extend)
	fire(s.listener.Click)
}

// ContextMenu reports a secondary click. The selection is left alone.
func (s *Surface) ContextMenu(pos types.Position) {
	fire(s.listener.ContextMenu)
}

func (s *Surface) changed(old string) {
	if s.listener.Change == nil {
		return
	}
	if now := string(s.text); now != old {
		s.listener.Change(old, now)
	}
}

func (s *Surface) replaceSelection(ins []rune) {
	sel := s.Selection()
	out := make([]rune, 0, len(s.text)-sel.Len()+len(ins))
	out = append(out, s.text[:sel.Start]...)
	out = append(out, ins...)
	out = append(out, s.text[sel.End:]...)
	s.text = out
	s.anchor = sel.Start + len(ins)
	s.head = s.anchor
	s.goalCol = -1
}

func (s *Surface) copySelection() bool {
	sel := s.Selection()
	if sel.IsCaret() {
		return false
	}
	if err := s.clipboard.WriteText(string(s.text[sel.Start:sel.End])); err != nil {
		logger.WarnTagf("surface", "copy failed: %v", err)
		return false
	}
	return true
}

func (s *Surface) moveTo(offset int, extend bool) {
	s.head = utils.Clamp(offset, 0, len(s.text))
	if !extend {
		s.anchor = s.head
	}
	s.goalCol = -1
}

func (s *Surface) moveLines(delta int, extend bool) {
	pos := s.PositionOf(s.head)
	col := pos.Col
	if s.goalCol >= 0 {
		col = s.goalCol
	}
	target := pos.Line + delta
	switch {
	case target < 0:
		s.moveTo(0, extend)
	case target >= len(s.Lines()):
		s.moveTo(len(s.text), extend)
	default:
		s.moveTo(s.OffsetAt(types.Position{Line: target, Col: col}), extend)
	}
	s.goalCol = col
}

func (s *Surface) lineStart(offset int) int {
	for offset > 0 && s.text[offset-1] != '\n' {
		offset--
	}
	return offset
}

func (s *Surface) lineEnd(offset int) int {
	for offset < len(s.text) && s.text[offset] != '\n' {
		offset++
	}
	return offset
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

func fire(hook func()) {
	if hook != nil {
		hook()
	}
}
