package collab

import (
	"errors"

	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/types"
	"github.com/bethropolis/collabmd/internal/utils"
)

// Surface is the plain-text editing surface a Binding drives.
type Surface interface {
	SelectionSurface
	Text() string
	// SetText replaces the content without reporting a change back.
	SetText(text string)
}

// Subscription is released by Deactivate.
type Subscription interface {
	Unsubscribe() bool
}

// Document is a SharedSequence that reports its changes.
type Document interface {
	SharedSequence
	SubscribeTextChanged(handler func(ChangeNotification)) Subscription
}

// viewState is the last text applied to the surface and the selection captured before the next input.
type viewState struct {
	text      string
	selection types.SelectionRange
}

// Option configures a Binding.
type Option func(*Binding)

// WithInferencer replaces the default CaretInferencer.
func WithInferencer(inf Inferencer) Option {
	return func(b *Binding) { b.infer = inf }
}

// WithErrorHandler receives errors raised while handling change notifications,
// which have no caller to return them to.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Binding) { b.onError = fn }
}

// Binding keeps one surface and one shared document in step. It is not safe
// for concurrent use; callers serialise surface events and notifications.
type Binding struct {
	doc     Document
	surface Surface
	infer   Inferencer
	apply   *Applier
	onError func(error)

	state viewState
	sub   Subscription
}

func NewBinding(doc Document, surface Surface, opts ...Option) *Binding {
	b := &Binding{
		doc:     doc,
		surface: surface,
		infer:   CaretInferencer{},
		apply:   NewApplier(doc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Activate loads the document text into the surface and subscribes to changes.
func (b *Binding) Activate() error {
	if b.sub != nil {
		return ErrAlreadyActive
	}
	b.state = b.resync(b.state)
	b.sub = b.doc.SubscribeTextChanged(b.handleTextChanged)
	return nil
}

// Deactivate releases the change subscription. It is safe to call when inactive.
func (b *Binding) Deactivate() {
	if b.sub == nil {
		return
	}
	b.sub.Unsubscribe()
	b.sub = nil
}

func (b *Binding) Active() bool { return b.sub != nil }

// Text returns the last text applied to the surface.
func (b *Binding) Text() string { return b.state.text }

// Selection returns the stored selection.
func (b *Binding) Selection() types.SelectionRange { return b.state.selection }

// CaptureSelection records the surface selection. Call it for every event
// that precedes input (before-input, key-down, click, context-menu) and
// whenever the selection moves on its own.
func (b *Binding) CaptureSelection() {
	b.state = capture(b.state, b.surface)
}

// HandleChange turns the surface's new content into one operation and applies
// it to the document. An *InferenceError resyncs the surface from the
// document. An *ApplyError leaves the surface as the user sees it.
func (b *Binding) HandleChange() error {
	if b.sub == nil {
		return ErrInactive
	}
	prev := b.state
	newText := b.surface.Text()
	caret := b.surface.Selection().Start

	op, err := b.infer.Infer(prev.text, newText, prev.selection, caret)
	if errors.Is(err, ErrNoChange) {
		b.state = capture(prev, b.surface)
		return nil
	}
	if err != nil {
		logger.WarnTagf("collab", "resyncing surface: %v", err)
		b.state = b.resync(prev)
		return err
	}

	logger.DebugTagf("collab", "local %v", op)
	b.state = viewState{text: newText, selection: b.surface.Selection()}
	return b.apply.Apply(op)
}

func (b *Binding) handleTextChanged(n ChangeNotification) {
	b.state = b.reconcile(b.state, n)
}

func (b *Binding) reconcile(prev viewState, n ChangeNotification) viewState {
	text := b.doc.GetText()
	if !n.IsLocal || b.surface.Text() != text {
		b.surface.SetText(text)
	}
	sel, err := Reconcile(prev.selection, n, b.surface, utils.RuneLen(text))
	if err != nil {
		logger.WarnTagf("collab", "%v", err)
		b.report(err)
	}
	return viewState{text: text, selection: sel}
}

func (b *Binding) resync(prev viewState) viewState {
	text := b.doc.GetText()
	b.surface.SetText(text)
	sel, _ := prev.selection.Clamp(utils.RuneLen(text))
	b.surface.SetSelection(sel)
	return viewState{text: text, selection: b.surface.Selection()}
}

func (b *Binding) report(err error) {
	if b.onError != nil {
		b.onError(err)
	}
}

func capture(prev viewState, surface SelectionSurface) viewState {
	prev.selection = surface.Selection()
	return prev
}
