// internal/event/manager.go
package event

import (
	"sync"

	"github.com/bethropolis/collabmd/internal/logger"
)

// Handler defines the function signature for event subscribers.
// The return value reports whether the event was consumed; it is currently ignored.
type Handler func(e Event) bool

type registration struct {
	id      uint64
	handler Handler
}

// Manager handles event subscriptions and dispatching.
// Dispatch is synchronous: handlers run to completion, one at a time, in
// subscription order, before Dispatch returns.
type Manager struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Type][]registration
}

// Subscription identifies one registered handler.
type Subscription struct {
	m         *Manager
	eventType Type
	id        uint64
}

// NewManager creates a new event manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Type][]registration),
	}
}

// Subscribe adds a handler function for a specific event type.
func (m *Manager) Subscribe(eventType Type, handler Handler) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.handlers[eventType] = append(m.handlers[eventType], registration{id: m.nextID, handler: handler})
	logger.DebugTagf("event", "Handler %d subscribed to %v", m.nextID, eventType)
	return Subscription{m: m, eventType: eventType, id: m.nextID}
}

// Unsubscribe removes the handler. It reports false if it was already removed.
func (s Subscription) Unsubscribe() bool {
	if s.m == nil {
		return false
	}
	return s.m.remove(s.eventType, s.id)
}

// Active reports whether the subscription is still registered.
func (s Subscription) Active() bool {
	if s.m == nil {
		return false
	}
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, r := range s.m.handlers[s.eventType] {
		if r.id == s.id {
			return true
		}
	}
	return false
}

func (m *Manager) remove(eventType Type, id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	regs := m.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			// Copy so an in-flight dispatch keeps its own snapshot.
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			m.handlers[eventType] = next
			logger.DebugTagf("event", "Handler %d unsubscribed from %v", id, eventType)
			return true
		}
	}
	return false
}

// Count returns the number of handlers registered for eventType.
func (m *Manager) Count(eventType Type) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[eventType])
}

// Dispatch sends an event to all registered handlers for its type.
func (m *Manager) Dispatch(eventType Type, data interface{}) {
	event := Event{
		Type: eventType,
		Data: data,
	}

	m.mu.RLock()
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	// The slice is never mutated in place, so handlers may unsubscribe during dispatch.
	for _, r := range handlers {
		r.handler(event)
	}
}
