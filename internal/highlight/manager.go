package highlight

import (
	"context"
	"sync"
	"time"

	"github.com/bethropolis/collabmd/internal/highlighter"
	"github.com/bethropolis/collabmd/internal/logger"
)

// DebounceHighlightDuration is how long the text must stay unchanged before it is re-parsed.
const DebounceHighlightDuration = 65 * time.Millisecond

// Result is the highlighting of one text snapshot.
type Result struct {
	Text  string
	Spans []highlighter.Span
}

// Manager handles debounced asynchronous highlighting. Results are handed to
// the deliver callback from a background goroutine; the receiver compares
// Result.Text with its current text and drops stale results.
type Manager struct {
	highlighter *highlighter.Highlighter
	deliver     func(Result)

	mu         sync.Mutex // protects everything below
	timer      *time.Timer
	pending    string
	hasPending bool
	cancelFunc context.CancelFunc
	isRunning  bool
	closed     bool
}

func NewManager(h *highlighter.Highlighter, deliver func(Result)) *Manager {
	return &Manager{highlighter: h, deliver: deliver}
}

// Schedule queues text for highlighting, restarting the debounce timer.
func (m *Manager) Schedule(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.pending, m.hasPending = text, true
	if m.timer != nil {
		m.timer.Reset(DebounceHighlightDuration)
		return
	}
	m.timer = time.AfterFunc(DebounceHighlightDuration, m.run)
}

func (m *Manager) run() {
	m.mu.Lock()
	m.timer = nil
	if m.closed || !m.hasPending {
		m.mu.Unlock()
		return
	}
	if m.isRunning {
		// The running task reschedules when it finishes.
		logger.DebugTagf("highlight", "update deferred, a highlight task is running")
		m.mu.Unlock()
		return
	}
	text := m.pending
	m.hasPending = false
	m.isRunning = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFunc = cancel
	m.mu.Unlock()

	go func() {
		spans, err := m.highlighter.Highlight(ctx, text)

		m.mu.Lock()
		m.isRunning = false
		m.cancelFunc = nil
		again := m.hasPending && !m.closed && m.timer == nil
		if again {
			m.timer = time.AfterFunc(DebounceHighlightDuration, m.run)
		}
		closed := m.closed
		m.mu.Unlock()
		cancel()

		if closed {
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				logger.WarnTagf("highlight", "background highlighting failed: %v", err)
			}
			return
		}
		m.deliver(Result{Text: text, Spans: spans})
	}()
}

// Shutdown cancels pending and running work. Nothing is delivered afterwards
// except a result whose delivery had already started.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.cancelFunc != nil {
		m.cancelFunc()
		m.cancelFunc = nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
