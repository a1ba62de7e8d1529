package app

import (
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/collabmd/internal/collab"
	"github.com/bethropolis/collabmd/internal/commands"
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/highlight"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/protocol"
	"github.com/bethropolis/collabmd/internal/session"
	"github.com/bethropolis/collabmd/internal/sharedtext"
	"github.com/bethropolis/collabmd/internal/surface"
)

// handleTerminalEvent reports whether the user asked to quit.
func (a *App) handleTerminalEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.tuiManager.Sync()
		a.resize()

	case *tcell.EventPaste:
		if ev.Start() {
			a.pasting, a.pasteBuffer = true, a.pasteBuffer[:0]
			break
		}
		a.pasting = false
		if len(a.pasteBuffer) > 0 {
			a.surface.InsertText(string(a.pasteBuffer))
		}

	case *tcell.EventKey:
		if a.pasting {
			a.collectPaste(ev)
			break
		}
		switch a.surface.HandleKey(ev) {
		case surface.ActionQuit:
			return true
		case surface.ActionNextTheme:
			if err := commands.NextTheme(a); err != nil {
				a.statusBar.SetTemporaryMessage("%v", err)
			}
		}

	case *tcell.EventMouse:
		a.handleMouse(ev)
	}
	return false
}

// collectPaste buffers the keys of a bracketed paste.
func (a *App) collectPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		a.pasteBuffer = append(a.pasteBuffer, ev.Rune())
	case tcell.KeyEnter:
		a.pasteBuffer = append(a.pasteBuffer, '\n')
	case tcell.KeyTab:
		a.pasteBuffer = append(a.pasteBuffer, '\t')
	}
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	buttons := ev.Buttons()
	pressed := buttons &^ a.mouseButtons
	held := buttons & a.mouseButtons
	a.mouseButtons = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	x, y := ev.Position()
	switch {
	case buttons&tcell.WheelUp != 0:
		a.surface.Perform(surface.ActionEvent{Action: surface.ActionMoveUp})
		return
	case buttons&tcell.WheelDown != 0:
		a.surface.Perform(surface.ActionEvent{Action: surface.ActionMoveDown})
		return
	}

	pos, ok := a.positionAt(x, y)
	if !ok {
		return
	}
	switch {
	case pressed&tcell.Button1 != 0:
		a.surface.Click(pos, ev.Modifiers()&tcell.ModShift != 0)
	case held&tcell.Button1 != 0:
		// Dragging extends the selection.
		a.surface.Click(pos, true)
	case pressed&tcell.Button2 != 0:
		a.surface.ContextMenu(pos)
	}
}

// handleSurfaceChange forwards an edit on the surface to the document.
// Binding errors are reported through reportEditError.
func (a *App) handleSurfaceChange(oldText, newText string) {
	if err := a.binding.HandleChange(); err != nil {
		a.reportEditError(err)
	}
}

func (a *App) reportEditError(err error) {
	var inferErr *collab.InferenceError
	switch {
	case errors.As(err, &inferErr):
		logger.WarnTagf("collab", "%v", err)
		a.statusBar.SetTemporaryMessage("Edit could not be synchronised, reloaded the shared text")
	case errors.Is(err, sharedtext.ErrDisconnected):
		a.statusBar.SetTemporaryMessage("Offline: edit not sent, it will be lost on rejoin")
	case errors.Is(err, collab.ErrApply):
		logger.WarnTagf("collab", "%v", err)
		a.statusBar.SetTemporaryMessage("Edit rejected: %v", err)
	case errors.Is(err, collab.ErrTransform):
		logger.DebugTagf("collab", "%v", err)
	default:
		logger.ErrorTagf("collab", "%v", err)
	}
}

func (a *App) handleSessionEvent(ev session.Event) {
	if ev.Kind == session.KindState {
		a.eventManager.Dispatch(event.TypeConnectionChanged, event.ConnectionChangedData{
			State: ev.State,
			DocID: a.session.DocID(),
			Err:   ev.Err,
		})
		return
	}

	msg := ev.Message
	switch msg.Type {
	case protocol.TypeWelcome:
		// Rejoin after a dropped link: the server snapshot wins.
		a.doc.Reset(msg.ClientID, msg.Rev, msg.Text)
		a.statusBar.SetDocument(msg.DocID, a.session.UserName())
		a.statusBar.SetTemporaryMessage("Rejoined %s at revision %d", msg.DocID, msg.Rev)

	case protocol.TypeChange:
		err := a.doc.Receive(msg)
		if errors.Is(err, sharedtext.ErrRevision) {
			logger.WarnTagf("sharedtext", "%v, rejoining", err)
			a.session.Rejoin()
		} else if err != nil {
			logger.ErrorTagf("sharedtext", "%v", err)
			a.statusBar.SetTemporaryMessage("Bad change from server: %v", err)
		}

	case protocol.TypePresence:
		a.eventManager.Dispatch(event.TypePresenceChanged, event.PresenceChangedData{Users: msg.Users})

	case protocol.TypeError:
		logger.WarnTagf("session", "server error: %s", msg.Message)
		a.statusBar.SetTemporaryMessage("Server: %s", msg.Message)

	default:
		logger.DebugTagf("session", "ignoring %s message", msg.Type)
	}
}

// handleHighlightResult keeps spans only for the text currently shown.
func (a *App) handleHighlightResult(res highlight.Result) {
	if res.Text != a.surface.Text() {
		logger.DebugTagf("highlight", "dropping stale result")
		return
	}
	a.spans = res.Spans
}

// --- Event bus handlers ---

func (a *App) handleTextChanged(e event.Event) bool {
	a.scheduleHighlight(a.doc.GetText())
	return false
}

func (a *App) handleConnectionChanged(e event.Event) bool {
	data, ok := e.Data.(event.ConnectionChangedData)
	if !ok {
		logger.Warnf("App: ConnectionChanged event with unexpected data type: %T", e.Data)
		return false
	}
	a.statusBar.SetConnection(data.State)
	if data.State == event.Disconnected && data.Err != nil {
		a.statusBar.SetTemporaryMessage("Connection lost: %v", data.Err)
	}
	return false
}

func (a *App) handlePresenceChanged(e event.Event) bool {
	if data, ok := e.Data.(event.PresenceChangedData); ok {
		a.statusBar.SetUsers(data.Users)
	}
	return false
}
