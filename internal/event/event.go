// internal/event/event.go
package event

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	// Shared document events
	TypeTextChanged // Fired after the shared sequence applied an edit (local or remote)

	// Session events
	TypeConnectionChanged // Fired when the session connects, disconnects or rejoins
	TypePresenceChanged   // Fired when the set of editors on the document changes

	// Application Lifecycle Events
	TypeAppReady
	TypeAppQuit
)

func (t Type) String() string {
	switch t {
	case TypeTextChanged:
		return "TextChanged"
	case TypeConnectionChanged:
		return "ConnectionChanged"
	case TypePresenceChanged:
		return "PresenceChanged"
	case TypeAppReady:
		return "AppReady"
	case TypeAppQuit:
		return "AppQuit"
	default:
		return "Unknown"
	}
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// ConnectionState describes the session's link to the server.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ConnectionChangedData carries the new session state.
type ConnectionChangedData struct {
	State ConnectionState
	DocID string
	Err   error // Set when the change was caused by a failure
}

// PresenceChangedData lists the users editing the document.
type PresenceChangedData struct {
	Users []string
}
