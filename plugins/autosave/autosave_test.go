package autosave

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/event"
)

// fakeAPI runs handlers synchronously, like the client loop would.
type fakeAPI struct {
	text     string
	settings map[string]interface{}
	events   *event.Manager
}

func newFakeAPI(settings map[string]interface{}) *fakeAPI {
	return &fakeAPI{settings: settings, events: event.NewManager()}
}

func (f *fakeAPI) Text() string     { return f.text }
func (f *fakeAPI) DocID() string    { return "doc-1" }
func (f *fakeAPI) UserName() string { return "ada" }

func (f *fakeAPI) SubscribeEvent(t event.Type, h event.Handler) { f.events.Subscribe(t, h) }

func (f *fakeAPI) SetStatusMessage(format string, args ...interface{}) {}
func (f *fakeAPI) SetStatusItem(name, text string)                     {}

func (f *fakeAPI) GetPluginConfigValue(pluginName, key string) (interface{}, bool) {
	v, ok := f.settings[key]
	return v, ok
}

func (f *fakeAPI) edit(text string) {
	f.text = text
	f.events.Dispatch(event.TypeTextChanged, nil)
}

func TestSavesLatestTextOnShutdown(t *testing.T) {
	dir := t.TempDir()
	api := newFakeAPI(map[string]interface{}{"enabled": true, "interval": "1h", "dir": dir})
	api.text = "# draft"

	p := New()
	require.NoError(t, p.Initialize(api))
	api.edit("# final")
	require.NoError(t, p.Shutdown())

	data, err := os.ReadFile(filepath.Join(dir, "doc-1.md"))
	require.NoError(t, err)
	assert.Equal(t, "# final", string(data))
}

func TestSavesPeriodically(t *testing.T) {
	dir := t.TempDir()
	api := newFakeAPI(map[string]interface{}{"enabled": true, "interval": "10ms", "dir": dir})
	api.text = "tick"

	p := New()
	require.NoError(t, p.Initialize(api))
	defer p.Shutdown()

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "doc-1.md"))
		return err == nil && string(data) == "tick"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisabledByDefault(t *testing.T) {
	dir := t.TempDir()
	api := newFakeAPI(map[string]interface{}{"dir": dir, "interval": "bogus"})

	p := New()
	require.NoError(t, p.Initialize(api))
	api.edit("ignored")
	require.NoError(t, p.Shutdown())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnabledWithoutDirFails(t *testing.T) {
	api := newFakeAPI(map[string]interface{}{"enabled": true})
	assert.Error(t, New().Initialize(api))
}
