// Package autosave keeps a local markdown copy of the shared document.
package autosave

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bethropolis/collabmd/internal/event"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/plugin"
)

// Ensure AutoSave implements plugin.Plugin
var _ plugin.Plugin = (*AutoSave)(nil)

const (
	// Default configuration values
	defaultEnabled  = false
	defaultInterval = 1 * time.Minute
)

// AutoSave periodically writes the shared text to a file when it changed.
//
//	[plugins.autosave]
//	enabled = true
//	interval = "30s"
//	dir = "~/notes"   # file is <dir>/<doc id>.md
type AutoSave struct {
	api plugin.EditorAPI

	// Configuration
	enabled  bool
	interval time.Duration
	dir      string

	// Runtime state
	mutex    sync.Mutex // protects text and dirty
	text     string
	dirty    bool
	path     string
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func New() plugin.Plugin {
	return &AutoSave{
		enabled:  defaultEnabled,
		interval: defaultInterval,
	}
}

func (p *AutoSave) Name() string {
	return "autosave"
}

// Initialize reads configuration and starts the auto-save loop if enabled.
func (p *AutoSave) Initialize(api plugin.EditorAPI) error {
	p.api = api
	pluginName := p.Name()

	// --- Read Configuration ---
	if enabledVal, ok := api.GetPluginConfigValue(pluginName, "enabled"); ok {
		if boolVal, isBool := enabledVal.(bool); isBool {
			p.enabled = boolVal
		} else {
			logger.Warnf("%s: Invalid type for 'enabled' config (%T), using default (%v)", pluginName, enabledVal, p.enabled)
		}
	}

	if intervalVal, ok := api.GetPluginConfigValue(pluginName, "interval"); ok {
		if strVal, isStr := intervalVal.(string); isStr {
			parsedInterval, err := time.ParseDuration(strVal)
			if err != nil {
				logger.Warnf("%s: Invalid format for 'interval' config ('%s'): %v. Using default (%v)", pluginName, strVal, err, p.interval)
			} else if parsedInterval <= 0 {
				logger.Warnf("%s: 'interval' config must be positive ('%s'). Using default (%v)", pluginName, strVal, p.interval)
			} else {
				p.interval = parsedInterval
			}
		} else {
			logger.Warnf("%s: Invalid type for 'interval' config (%T), using default (%v)", pluginName, intervalVal, p.interval)
		}
	}

	if dirVal, ok := api.GetPluginConfigValue(pluginName, "dir"); ok {
		if strVal, isStr := dirVal.(string); isStr {
			p.dir = strVal
		}
	}

	logger.Infof("%s initialized. Enabled: %v, Interval: %v", pluginName, p.enabled, p.interval)
	if !p.enabled {
		return nil
	}
	if p.dir == "" {
		return fmt.Errorf("%s: 'dir' must be set when enabled", pluginName)
	}
	p.path = filepath.Join(p.dir, api.DocID()+".md")

	// The handler runs on the client loop; the saver only sees the copy.
	p.text, p.dirty = api.Text(), true
	api.SubscribeEvent(event.TypeTextChanged, func(event.Event) bool {
		p.mutex.Lock()
		p.text, p.dirty = api.Text(), true
		p.mutex.Unlock()
		return false
	})

	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.saverLoop(p.interval)
	return nil
}

// Shutdown stops the saver and writes any unsaved text.
func (p *AutoSave) Shutdown() error {
	if p.stopChan == nil {
		return nil
	}
	close(p.stopChan)
	p.wg.Wait()
	p.stopChan = nil
	return p.saveIfModified()
}

func (p *AutoSave) saverLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.saveIfModified(); err != nil {
				logger.Errorf("%s: Auto-save failed: %v", p.Name(), err)
			}
		case <-p.stopChan:
			return
		}
	}
}

// saveIfModified writes the latest text when it changed since the last save.
func (p *AutoSave) saveIfModified() error {
	p.mutex.Lock()
	text, dirty := p.text, p.dirty
	p.dirty = false
	p.mutex.Unlock()
	if !dirty {
		return nil
	}
	if err := p.write(text); err != nil {
		p.mutex.Lock()
		p.dirty = true
		p.mutex.Unlock()
		return err
	}
	logger.Debugf("%s: Saved %s", p.Name(), p.path)
	return nil
}

// write replaces the file through a temporary so readers never see a partial text.
func (p *AutoSave) write(text string) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}
