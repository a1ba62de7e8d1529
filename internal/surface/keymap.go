package surface

import (
	"github.com/gdamore/tcell/v2"
)

// Keymap maps special keys to actions.
type Keymap map[tcell.Key]Action

// InputProcessor translates tcell key events into ActionEvents.
type InputProcessor struct {
	keymap  Keymap
	ctrlMap Keymap // keys that only mean something with Ctrl held
}

// NewInputProcessor creates a processor with the default textarea bindings.
func NewInputProcessor() *InputProcessor {
	p := &InputProcessor{
		keymap:  make(Keymap),
		ctrlMap: make(Keymap),
	}
	p.loadDefaultBindings()
	return p
}

func (p *InputProcessor) loadDefaultBindings() {
	p.keymap[tcell.KeyUp] = ActionMoveUp
	p.keymap[tcell.KeyDown] = ActionMoveDown
	p.keymap[tcell.KeyLeft] = ActionMoveLeft
	p.keymap[tcell.KeyRight] = ActionMoveRight
	p.keymap[tcell.KeyPgUp] = ActionMovePageUp
	p.keymap[tcell.KeyPgDn] = ActionMovePageDown
	p.keymap[tcell.KeyHome] = ActionMoveHome
	p.keymap[tcell.KeyEnd] = ActionMoveEnd
	p.keymap[tcell.KeyEnter] = ActionInsertNewLine
	p.keymap[tcell.KeyTab] = ActionInsertTab
	p.keymap[tcell.KeyBackspace] = ActionDeleteCharBackward
	p.keymap[tcell.KeyBackspace2] = ActionDeleteCharBackward
	p.keymap[tcell.KeyDelete] = ActionDeleteCharForward

	p.ctrlMap[tcell.KeyCtrlA] = ActionSelectAll
	p.ctrlMap[tcell.KeyCtrlC] = ActionCopy
	p.ctrlMap[tcell.KeyCtrlX] = ActionCut
	p.ctrlMap[tcell.KeyCtrlV] = ActionPaste
	p.ctrlMap[tcell.KeyCtrlQ] = ActionQuit
	p.ctrlMap[tcell.KeyCtrlT] = ActionNextTheme
}

// ProcessEvent returns the ActionEvent for a key event, or ActionUnknown.
func (p *InputProcessor) ProcessEvent(ev *tcell.EventKey) ActionEvent {
	key := ev.Key()
	mod := ev.Modifiers()

	if action, ok := p.ctrlMap[key]; ok {
		return ActionEvent{Action: action}
	}
	// Ctrl+letter keys already carry the modifier in the key code.
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		mod &^= tcell.ModCtrl
	}

	if mod == tcell.ModNone || mod == tcell.ModShift {
		if action, ok := p.keymap[key]; ok {
			return ActionEvent{Action: action, Extend: mod == tcell.ModShift}
		}
	}

	// Plain and shifted runes insert; Ctrl/Alt+rune do not.
	if key == tcell.KeyRune && mod&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
		return ActionEvent{Action: ActionInsertRune, Rune: ev.Rune()}
	}

	return ActionEvent{Action: ActionUnknown}
}
