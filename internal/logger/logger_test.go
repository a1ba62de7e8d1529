package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	install(cfg, &buf)
	t.Cleanup(func() { install(NewConfig(), nil) })
	buf.Reset() // drop the init line
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, Config{LogLevel: "warn"})

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "logger_test.go", "source should point at the caller")
}

func TestTagFiltering(t *testing.T) {
	buf := capture(t, Config{LogLevel: "debug", DisabledTags: []string{"Noisy"}})

	DebugTagf("noisy", "dropped")
	DebugTagf("collab", "kept")
	Debugf("untagged")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "untagged")
}

func TestEnabledTagsDropUntagged(t *testing.T) {
	buf := capture(t, Config{LogLevel: "debug", EnabledTags: []string{"server"}})

	Infof("untagged")
	InfoTagf("other", "other tag")
	InfoTagf("server", "server tag")

	assert.NotContains(t, buf.String(), "untagged")
	assert.NotContains(t, buf.String(), "other tag")
	assert.Contains(t, buf.String(), "server tag")
}

func TestPackageFiltering(t *testing.T) {
	buf := capture(t, Config{LogLevel: "debug", DisabledPackages: []string{"logger"}})
	Errorf("from logger package")
	assert.Empty(t, buf.String())
}

func TestOpenOutput(t *testing.T) {
	w, closeFn, err := OpenOutput("", "-")
	require.NoError(t, err)
	assert.NotNil(t, w)
	assert.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "nested", "app.log")
	w, closeFn, err = OpenOutput(path, "-")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	assert.FileExists(t, path)
}
