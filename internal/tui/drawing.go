package tui

import (
	"fmt"
	"strconv"

	"github.com/rivo/uniseg"

	"github.com/bethropolis/collabmd/internal/highlighter"
	"github.com/bethropolis/collabmd/internal/theme"
	"github.com/bethropolis/collabmd/internal/types"
	"github.com/bethropolis/collabmd/internal/utils"
)

// TextView is the read side of the editing surface.
type TextView interface {
	Text() string
	Lines() []string
	Selection() types.SelectionRange
	Head() int
	PositionOf(offset int) types.Position
	TabWidth() int
}

// Viewport is the first visible line and the first visible visual column.
type Viewport struct {
	Top  int
	Left int
}

// Layout splits the screen into gutter, text area and status bar.
type Layout struct {
	Width           int
	Height          int
	StatusBarHeight int
	Gutter          int // line number width plus padding, 0 when hidden
}

const lineNumberPadding = 1

// NewLayout sizes the gutter for lineCount lines. The gutter is dropped
// when the screen is too narrow for any text.
func NewLayout(width, height, statusBarHeight, lineCount int) Layout {
	gutter := len(strconv.Itoa(max(lineCount, 1))) + lineNumberPadding
	if gutter >= width {
		gutter = 0
	}
	return Layout{Width: width, Height: height, StatusBarHeight: statusBarHeight, Gutter: gutter}
}

func (l Layout) ViewHeight() int { return max(l.Height-l.StatusBarHeight, 0) }
func (l Layout) TextWidth() int  { return max(l.Width-l.Gutter, 0) }

// cellWidth is the number of screen cells a grapheme cluster takes when it
// starts at visual column vis. Tabs run to the next tab stop.
func cellWidth(runes []rune, width, vis, tabWidth int) int {
	if runes[0] == '\t' {
		return tabWidth - vis%tabWidth
	}
	return max(width, 1)
}

// visualColumn returns the screen column of rune index col in line.
func visualColumn(line string, col, tabWidth int) int {
	vis, idx := 0, 0
	gr := uniseg.NewGraphemes(line)
	for idx < col && gr.Next() {
		runes := gr.Runes()
		vis += cellWidth(runes, gr.Width(), vis, tabWidth)
		idx += len(runes)
	}
	return vis
}

// runeColumn returns the rune index of the cluster covering visual column x,
// or the line length when x is past the end.
func runeColumn(line string, x, tabWidth int) int {
	vis, idx := 0, 0
	gr := uniseg.NewGraphemes(line)
	for gr.Next() {
		runes := gr.Runes()
		w := cellWidth(runes, gr.Width(), vis, tabWidth)
		if vis+w > x {
			return idx
		}
		vis += w
		idx += len(runes)
	}
	return idx
}

// Follow scrolls vp so the caret stays inside the text area.
func (vp *Viewport) Follow(text TextView, l Layout) {
	lines := text.Lines()
	head := text.PositionOf(text.Head())

	if vp.Top > len(lines)-1 {
		vp.Top = max(len(lines)-1, 0)
	}
	if head.Line < vp.Top {
		vp.Top = head.Line
	}
	if vh := l.ViewHeight(); vh > 0 && head.Line >= vp.Top+vh {
		vp.Top = head.Line - vh + 1
	}

	vis := visualColumn(lines[head.Line], head.Col, text.TabWidth())
	if vis < vp.Left {
		vp.Left = vis
	}
	if tw := l.TextWidth(); tw > 0 && vis >= vp.Left+tw {
		vp.Left = vis - tw + 1
	}
}

// PositionAt maps a screen cell to a text position. It reports false for
// cells outside the text area.
func PositionAt(vp Viewport, l Layout, text TextView, x, y int) (types.Position, bool) {
	if y < 0 || y >= l.ViewHeight() || x < 0 || x >= l.Width {
		return types.Position{}, false
	}
	lines := text.Lines()
	line := vp.Top + y
	if line >= len(lines) {
		last := len(lines) - 1
		return types.Position{Line: last, Col: utils.RuneLen(lines[last])}, true
	}
	col := runeColumn(lines[line], max(x-l.Gutter, 0)+vp.Left, text.TabWidth())
	return types.Position{Line: line, Col: col}, true
}

// DrawSurface draws the visible lines with line numbers, highlight spans and
// the selection. An empty text shows the placeholder instead.
func DrawSurface(t *TUI, vp Viewport, l Layout, text TextView, spans []highlighter.Span, th *theme.Theme, placeholder string) {
	screen := t.screen
	defaultStyle := th.GetStyle("Default")
	lineNumberStyle := th.GetStyle("LineNumber")
	selectionStyle := th.GetStyle("Selection")

	viewHeight := l.ViewHeight()
	if viewHeight <= 0 || l.Width <= 0 {
		return
	}

	lines := text.Lines()
	sel := text.Selection()
	head := text.PositionOf(text.Head())
	tabWidth := text.TabWidth()
	digits := l.Gutter - lineNumberPadding

	// Rune offset of the first visible line, and the style names of every
	// visible rune.
	start := 0
	for i := 0; i < vp.Top && i < len(lines); i++ {
		start += utils.RuneLen(lines[i]) + 1
	}
	end := start
	for i := vp.Top; i < vp.Top+viewHeight && i < len(lines); i++ {
		end += utils.RuneLen(lines[i]) + 1
	}
	names := make([]string, end-start)
	for _, span := range spans {
		for off := max(span.Start, start); off < span.End && off < end; off++ {
			names[off-start] = span.StyleName
		}
	}

	lineStart := start
	for screenY := 0; screenY < viewHeight; screenY++ {
		lineIdx := vp.Top + screenY
		for x := 0; x < l.Width; x++ {
			screen.SetContent(x, screenY, ' ', nil, defaultStyle)
		}
		if lineIdx >= len(lines) {
			continue
		}

		if l.Gutter > 0 {
			style := lineNumberStyle
			if lineIdx == head.Line {
				style = style.Bold(true)
			}
			for i, r := range fmt.Sprintf("%*d", digits, lineIdx+1) {
				screen.SetContent(i, screenY, r, nil, style)
			}
		}

		line := lines[lineIdx]
		vis, idx := 0, 0
		gr := uniseg.NewGraphemes(line)
		for gr.Next() && vis < vp.Left+l.TextWidth() {
			runes := gr.Runes()
			w := cellWidth(runes, gr.Width(), vis, tabWidth)
			off := lineStart + idx

			style := defaultStyle
			if name := names[off-start]; name != "" {
				style = th.GetStyle(name)
			}
			if off >= sel.Start && off < sel.End {
				style = selectionStyle
			}

			for cell := 0; cell < w; cell++ {
				screenX := vis + cell - vp.Left + l.Gutter
				if screenX < l.Gutter || screenX >= l.Width {
					continue
				}
				switch {
				case runes[0] == '\t' || cell > 0:
					screen.SetContent(screenX, screenY, ' ', nil, style)
				case gr.Width() == 0:
					screen.SetContent(screenX, screenY, '?', nil, style)
				default:
					screen.SetContent(screenX, screenY, runes[0], runes[1:], style)
				}
			}
			vis += w
			idx += len(runes)
		}
		// A selected line break shows as one selected cell.
		if nl := lineStart + utils.RuneLen(line); nl >= sel.Start && nl < sel.End && lineIdx < len(lines)-1 {
			if screenX := visualColumn(line, utils.RuneLen(line), tabWidth) - vp.Left + l.Gutter; screenX >= l.Gutter && screenX < l.Width {
				screen.SetContent(screenX, screenY, ' ', nil, selectionStyle)
			}
		}
		lineStart += utils.RuneLen(line) + 1
	}

	if text.Text() == "" && placeholder != "" {
		x := l.Gutter
		style := th.GetStyle("Placeholder")
		gr := uniseg.NewGraphemes(placeholder)
		for gr.Next() && x+gr.Width() <= l.Width {
			runes := gr.Runes()
			screen.SetContent(x, 0, runes[0], runes[1:], style)
			x += gr.Width()
		}
	}
}

// DrawCursor shows the terminal cursor at the selection head, or hides it
// when the head is scrolled out of view.
func DrawCursor(t *TUI, vp Viewport, l Layout, text TextView) {
	lines := text.Lines()
	head := text.PositionOf(text.Head())
	screenX := visualColumn(lines[head.Line], head.Col, text.TabWidth()) - vp.Left + l.Gutter
	screenY := head.Line - vp.Top

	if screenX < l.Gutter || screenX >= l.Width || screenY < 0 || screenY >= l.ViewHeight() {
		t.screen.HideCursor()
		return
	}
	t.screen.ShowCursor(screenX, screenY)
}
