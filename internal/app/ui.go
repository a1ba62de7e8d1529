package app

import (
	"github.com/bethropolis/collabmd/internal/tui"
	"github.com/bethropolis/collabmd/internal/types"
)

// resize recomputes the layout and the surface's page size.
func (a *App) resize() {
	w, h := a.tuiManager.Size()
	a.layout = tui.NewLayout(w, h, a.cfg.Editor.StatusBarHeight, len(a.surface.Lines()))
	a.surface.SetPageSize(max(a.layout.ViewHeight()-1, 1))
}

// positionAt maps a screen cell to a text position.
func (a *App) positionAt(x, y int) (types.Position, bool) {
	return tui.PositionAt(a.viewport, a.layout, a.surface, x, y)
}

// drawEditor clears screen and redraws all components.
func (a *App) drawEditor() {
	a.resize()
	a.viewport.Follow(a.surface, a.layout)
	a.updateStatusBarContent()

	screen := a.tuiManager.GetScreen()
	width, height := a.tuiManager.Size()

	a.tuiManager.Clear()
	tui.DrawSurface(a.tuiManager, a.viewport, a.layout, a.surface, a.spans, a.activeTheme, a.cfg.Editor.Placeholder)
	if a.layout.StatusBarHeight > 0 {
		a.statusBar.Draw(screen, width, height)
	}
	tui.DrawCursor(a.tuiManager, a.viewport, a.layout, a.surface)
	a.tuiManager.Show()
}

// updateStatusBarContent pushes the caret and queue state to the status bar.
func (a *App) updateStatusBarContent() {
	sel := a.surface.Selection()
	a.statusBar.SetCursorInfo(a.surface.PositionOf(a.surface.Head()), sel.Len())
	if a.doc != nil {
		a.statusBar.SetPending(a.doc.Pending())
	}
}
