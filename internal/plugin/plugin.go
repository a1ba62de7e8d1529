// internal/plugin/plugin.go
package plugin

import (
	"github.com/bethropolis/collabmd/internal/event"
)

// EditorAPI defines what plugins may do with the client.
// Every method must be called from the client loop, which includes event
// handlers registered through SubscribeEvent and Initialize itself.
type EditorAPI interface {
	// --- Document Access (Read-Only) ---
	Text() string // current shared text
	DocID() string
	UserName() string

	// --- Event Bus Interaction ---
	SubscribeEvent(eventType event.Type, handler event.Handler)

	// --- Status Bar ---
	SetStatusMessage(format string, args ...interface{}) // Show temporary messages
	SetStatusItem(name, text string)                     // Persistent right-hand item, "" removes it

	// --- Configuration ---
	GetPluginConfigValue(pluginName, key string) (interface{}, bool)
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once after the document is joined. Used for
	// setup and subscribing to events.
	Initialize(api EditorAPI) error

	// Shutdown is called once when the editor is closing.
	Shutdown() error
}
