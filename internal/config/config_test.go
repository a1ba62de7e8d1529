package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, undecoded, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)
	assert.Empty(t, undecoded)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadFileAndValidate(t *testing.T) {
	path := writeConfig(t, `
[logger]
log_level = "debug"
disabled_tags = ["ot"]

[editor]
tab_width = -2
inference = "diff"
system_clipboard = false

[session]
server_url = "ws://example.test/ws"
user_name = "ada"

[server]
store = "nosuchstore"
history_limit = 50
mystery = 1

[plugins.autosave]
enabled = true
interval = "30s"
`)
	cfg, undecoded, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.LogLevel)
	assert.Equal(t, []string{"ot"}, cfg.Logger.DisabledTags)
	assert.Equal(t, DefaultTabWidth, cfg.Editor.TabWidth, "invalid tab width resets to default")
	assert.Equal(t, InferenceDiff, cfg.Editor.Inference)
	assert.False(t, cfg.Editor.SystemClipboard)
	assert.Equal(t, "ws://example.test/ws", cfg.Session.ServerURL)
	assert.Equal(t, "ada", cfg.Session.UserName)
	assert.Equal(t, StoreMemory, cfg.Server.Store, "unknown store resets to default")
	assert.Equal(t, 50, cfg.Server.HistoryLimit)
	assert.Equal(t, []string{"server.mystery"}, undecoded)

	enabled, ok := cfg.PluginValue("autosave", "enabled")
	require.True(t, ok)
	assert.Equal(t, true, enabled)
	_, ok = cfg.PluginValue("wordcount", "enabled")
	assert.False(t, ok)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "[editor\ntab_width = 4")
	_, _, err := Load(path, nil)
	assert.Error(t, err)
}

func TestFlagOverrides(t *testing.T) {
	path := writeConfig(t, `
[editor]
tab_width = 8
[server]
store = "bolt"
`)
	flags := NewFlags("test")
	flags.DefineClientFlags()
	flags.DefineServerFlags()
	rest, err := flags.Parse([]string{
		"-tabwidth", "2",
		"-user", "grace",
		"-log-tags", "collab, server ,",
		"-store", "memory",
		"-inference", "bogus",
		"-theme", "Collab Light",
		"doc-123",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-123"}, rest)

	cfg, _, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Editor.TabWidth)
	assert.Equal(t, "grace", cfg.Session.UserName)
	assert.Equal(t, []string{"collab", "server"}, cfg.Logger.EnabledTags)
	assert.Equal(t, StoreMemory, cfg.Server.Store)
	assert.Equal(t, InferenceCaret, cfg.Editor.Inference, "invalid inference falls back after validation")
	assert.Equal(t, "Collab Light", cfg.Editor.Theme)
	assert.Equal(t, DefaultServerURL, cfg.Session.ServerURL, "unset flags leave config untouched")
}
