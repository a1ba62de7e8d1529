package surface

// Action is an editing or movement request decoded from a key event.
type Action int

const (
	ActionUnknown Action = iota

	// Handled by the application, never performed by the surface.
	ActionQuit
	ActionNextTheme

	// Movement. With ActionEvent.Extend set they grow the selection.
	ActionMoveUp
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionMovePageUp
	ActionMovePageDown
	ActionMoveHome // beginning of line
	ActionMoveEnd  // end of line
	ActionSelectAll

	// Text manipulation
	ActionInsertRune
	ActionInsertNewLine
	ActionInsertTab
	ActionDeleteCharBackward
	ActionDeleteCharForward

	// Clipboard
	ActionCopy
	ActionCut
	ActionPaste
)

var actionNames = map[Action]string{
	ActionUnknown:            "unknown",
	ActionQuit:               "quit",
	ActionNextTheme:          "next-theme",
	ActionMoveUp:             "move-up",
	ActionMoveDown:           "move-down",
	ActionMoveLeft:           "move-left",
	ActionMoveRight:          "move-right",
	ActionMovePageUp:         "page-up",
	ActionMovePageDown:       "page-down",
	ActionMoveHome:           "home",
	ActionMoveEnd:            "end",
	ActionSelectAll:          "select-all",
	ActionInsertRune:         "insert-rune",
	ActionInsertNewLine:      "newline",
	ActionInsertTab:          "tab",
	ActionDeleteCharBackward: "backspace",
	ActionDeleteCharForward:  "delete",
	ActionCopy:               "copy",
	ActionCut:                "cut",
	ActionPaste:              "paste",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// external reports whether the action is returned to the caller unperformed.
func (a Action) external() bool {
	return a == ActionQuit || a == ActionNextTheme
}

// mutates reports whether the action may change the text.
func (a Action) mutates() bool {
	switch a {
	case ActionInsertRune, ActionInsertNewLine, ActionInsertTab,
		ActionDeleteCharBackward, ActionDeleteCharForward, ActionCut, ActionPaste:
		return true
	}
	return false
}

// ActionEvent is a decoded key event.
type ActionEvent struct {
	Action Action
	Rune   rune // for ActionInsertRune
	Extend bool // Shift held on a movement key
}
