package surface

import (
	"sync"

	"github.com/atotto/clipboard"

	"github.com/bethropolis/collabmd/internal/logger"
)

// Clipboard stores text for copy, cut and paste.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// MemoryClipboard keeps the clipboard inside the process.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *MemoryClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

// SystemClipboard uses the OS clipboard and falls back to memory when the
// platform has none (no xclip/xsel/wl-clipboard, headless sessions).
type SystemClipboard struct {
	fallback MemoryClipboard
}

func (c *SystemClipboard) ReadText() (string, error) {
	if clipboard.Unsupported {
		return c.fallback.ReadText()
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		logger.WarnTagf("surface", "system clipboard read failed, using internal clipboard: %v", err)
		return c.fallback.ReadText()
	}
	return text, nil
}

func (c *SystemClipboard) WriteText(text string) error {
	// Keep the internal copy current so a later failing read still pastes.
	_ = c.fallback.WriteText(text)
	if clipboard.Unsupported {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		logger.WarnTagf("surface", "system clipboard write failed: %v", err)
	}
	return nil
}

// NewClipboard returns the system clipboard when requested, otherwise an in-memory one.
func NewClipboard(system bool) Clipboard {
	if system {
		return &SystemClipboard{}
	}
	return &MemoryClipboard{}
}
