// Package app runs the terminal client: one loop owns the surface, the
// binding and the shared document, and serialises terminal input, session
// traffic and highlighting results.
package app

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/collabmd/internal/collab"
	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/highlight"
	"github.com/bethropolis/collabmd/internal/highlighter"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/plugin"
	"github.com/bethropolis/collabmd/internal/session"
	"github.com/bethropolis/collabmd/internal/sharedtext"
	"github.com/bethropolis/collabmd/internal/statusbar"
	"github.com/bethropolis/collabmd/internal/surface"
	"github.com/bethropolis/collabmd/internal/theme"
	"github.com/bethropolis/collabmd/internal/tui"
	"github.com/bethropolis/collabmd/plugins/autosave"
	"github.com/bethropolis/collabmd/plugins/wordcount"
)

// Options holds what the client needs besides the configuration.
type Options struct {
	DocID     string       // empty creates a new document
	Screen    tcell.Screen // nil opens the terminal
	ThemesDir string
}

// App encapsulates the client's components and main loop.
type App struct {
	cfg   *config.Config
	docID string

	tuiManager    *tui.TUI
	surface       *surface.Surface
	statusBar     *statusbar.StatusBar
	eventManager  *event.Manager
	themes        *theme.Manager
	activeTheme   *theme.Theme
	pluginManager *plugin.Manager

	highlighter         *highlighter.Highlighter
	highlightingManager *highlight.Manager
	highlights          chan highlight.Result
	spans               []highlighter.Span // last result, may trail the text

	// Set by Run once the document is joined.
	session *session.Session
	doc     *sharedtext.SharedString
	binding *collab.Binding

	viewport tui.Viewport
	layout   tui.Layout

	input        chan tcell.Event
	done         chan struct{}
	pasting      bool
	pasteBuffer  []rune
	mouseButtons tcell.ButtonMask
}

// New opens the screen and builds the editing surface. Nothing is dialled
// until Run.
func New(cfg *config.Config, opts Options) (*App, error) {
	themes := theme.NewManager(opts.ThemesDir)
	if err := themes.SetTheme(cfg.Editor.Theme); err != nil {
		logger.Warnf("App: %v, using %s", err, themes.Current().Name)
	}
	activeTheme := themes.Current()

	var (
		tuiManager *tui.TUI
		err        error
	)
	if opts.Screen != nil {
		tuiManager, err = tui.NewWithScreen(opts.Screen, activeTheme.GetStyle("Default"))
	} else {
		tuiManager, err = tui.New(activeTheme.GetStyle("Default"))
	}
	if err != nil {
		return nil, fmt.Errorf("TUI initialization failed: %w", err)
	}

	a := &App{
		cfg:           cfg,
		docID:         opts.DocID,
		tuiManager:    tuiManager,
		statusBar:     statusbar.New(statusbar.ConfigFromTheme(activeTheme)),
		eventManager:  event.NewManager(),
		themes:        themes,
		activeTheme:   activeTheme,
		pluginManager: plugin.NewManager(),
		highlights:    make(chan highlight.Result, 1),
		input:         make(chan tcell.Event, 64),
		done:          make(chan struct{}),
	}
	a.surface = surface.New(surface.Options{
		TabWidth:  cfg.Editor.TabWidth,
		Clipboard: surface.NewClipboard(cfg.Editor.SystemClipboard),
	})
	a.resize()

	if h, err := highlighter.New(); err != nil {
		logger.Warnf("App: markdown highlighting disabled: %v", err)
	} else {
		a.highlighter = h
		a.highlightingManager = highlight.NewManager(h, a.deliverHighlights)
	}

	// --- Register Built-in Plugins ---
	for _, p := range []plugin.Plugin{wordcount.New(), autosave.New()} {
		if err := a.pluginManager.Register(p); err != nil {
			logger.Warnf("App: %v", err)
		}
	}

	a.eventManager.Subscribe(event.TypeTextChanged, a.handleTextChanged)
	a.eventManager.Subscribe(event.TypeConnectionChanged, a.handleConnectionChanged)
	a.eventManager.Subscribe(event.TypePresenceChanged, a.handlePresenceChanged)
	return a, nil
}

// Run joins the document and processes events until the user quits, ctx is
// cancelled or the session gives up.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	a.statusBar.SetConnection(event.Connecting)
	a.statusBar.SetDocument(a.docID, a.cfg.Session.UserName)
	a.drawEditor()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.join(ctx); err != nil {
		return err
	}

	a.pluginManager.InitializePlugins(newEditorAPI(a))

	runErr := make(chan error, 1)
	go func() { runErr <- a.session.Run(ctx) }()
	go a.pollEvents()

	a.eventManager.Dispatch(event.TypeAppReady, nil)
	a.statusBar.SetTemporaryMessage("Editing %s - Ctrl+Q Quit", a.session.DocID())
	a.drawEditor()

	err := a.eventLoop(ctx, runErr)
	a.eventManager.Dispatch(event.TypeAppQuit, nil)
	if pending := a.doc.Pending(); pending > 0 {
		logger.Warnf("App: exiting with %d unacknowledged operations", pending)
	}
	return err
}

// join dials the server and binds the surface to the joined document.
func (a *App) join(ctx context.Context) error {
	sess, welcome, err := session.Dial(ctx, session.ConfigFrom(a.cfg.Session, a.docID))
	if err != nil {
		return fmt.Errorf("join document: %w", err)
	}
	a.session = sess
	a.doc = sharedtext.New(a.eventManager, sess)
	a.doc.Reset(welcome.ClientID, welcome.Rev, welcome.Text)

	inf, err := collab.NewInferencer(a.cfg.Editor.Inference)
	if err != nil {
		return err
	}
	a.binding = collab.NewBinding(a.doc, a.surface,
		collab.WithInferencer(inf),
		collab.WithErrorHandler(a.reportEditError),
	)
	a.surface.SetListener(surface.Listener{
		BeforeInput: a.binding.CaptureSelection,
		KeyDown:     a.binding.CaptureSelection,
		KeyUp:       a.binding.CaptureSelection,
		Click:       a.binding.CaptureSelection,
		ContextMenu: a.binding.CaptureSelection,
		Select:      a.binding.CaptureSelection,
		Change:      a.handleSurfaceChange,
	})
	if err := a.binding.Activate(); err != nil {
		return err
	}

	a.statusBar.SetDocument(welcome.DocID, sess.UserName())
	a.eventManager.Dispatch(event.TypeConnectionChanged, event.ConnectionChangedData{
		State: event.Connected,
		DocID: welcome.DocID,
	})
	a.scheduleHighlight(a.doc.GetText())
	return nil
}

// eventLoop is the only goroutine touching the surface, binding and document.
func (a *App) eventLoop(ctx context.Context, runErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("session ended: %w", err)
		case ev := <-a.input:
			if quit := a.handleTerminalEvent(ev); quit {
				return nil
			}
		case ev := <-a.session.Events():
			a.handleSessionEvent(ev)
		case res := <-a.highlights:
			a.handleHighlightResult(res)
		}
		a.drawEditor()
	}
}

// pollEvents feeds terminal events to the loop until the screen is closed.
func (a *App) pollEvents() {
	for {
		ev := a.tuiManager.PollEvent()
		if ev == nil {
			return
		}
		select {
		case a.input <- ev:
		case <-a.done:
			return
		}
	}
}

// deliverHighlights keeps only the newest undelivered result.
func (a *App) deliverHighlights(res highlight.Result) {
	select {
	case <-a.highlights:
	default:
	}
	select {
	case a.highlights <- res:
	default:
	}
}

func (a *App) scheduleHighlight(text string) {
	if a.highlightingManager != nil {
		a.highlightingManager.Schedule(text)
	}
}

func (a *App) shutdown() {
	close(a.done)
	a.pluginManager.ShutdownPlugins()
	if a.binding != nil {
		a.binding.Deactivate()
	}
	if a.highlightingManager != nil {
		a.highlightingManager.Shutdown()
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			logger.DebugTagf("session", "close: %v", err)
		}
	}
	a.tuiManager.Close()
	if a.highlighter != nil {
		a.highlighter.Close()
	}
}

// SetTheme switches the active theme by name.
func (a *App) SetTheme(name string) error {
	if err := a.themes.SetTheme(name); err != nil {
		return err
	}
	a.activeTheme = a.themes.Current()
	a.tuiManager.SetStyle(a.activeTheme.GetStyle("Default"))
	a.statusBar.SetConfig(statusbar.ConfigFromTheme(a.activeTheme))
	return nil
}

// ListThemes returns the names of the loaded themes.
func (a *App) ListThemes() []string {
	return a.themes.ListThemes()
}

// SetStatusMessage shows a temporary message in the status bar.
func (a *App) SetStatusMessage(format string, args ...interface{}) {
	a.statusBar.SetTemporaryMessage(format, args...)
}

// GetTheme returns the app's active theme.
func (a *App) GetTheme() *theme.Theme {
	return a.activeTheme
}
