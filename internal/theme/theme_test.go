package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStyleFallback(t *testing.T) {
	th := CollabDark
	assert.Equal(t, th.Styles["heading.marker"], th.GetStyle("heading.marker"))
	assert.Equal(t, th.Styles["list"], th.GetStyle("list.marker"), "falls back to the base name")
	assert.Equal(t, th.Styles["Default"], th.GetStyle("nothing.here"))

	empty := &Theme{Name: "empty", Styles: map[string]tcell.Style{}}
	assert.Equal(t, tcell.StyleDefault, empty.GetStyle("heading"))
}

func writeTheme(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadThemeFromFile(t *testing.T) {
	path := writeTheme(t, t.TempDir(), "paper.toml", `
is_dark = false
[styles.Default]
fg = "#101010"
bg = "white"
[styles.heading]
bold = true
[styles.code]
fg = "not-a-color"
`)
	th, err := LoadThemeFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "paper", th.Name, "name defaults to the file name")
	assert.False(t, th.IsDark)

	base := tcell.StyleDefault.Foreground(tcell.NewHexColor(0x101010)).Background(tcell.ColorWhite)
	assert.Equal(t, base, th.Styles["Default"])
	assert.Equal(t, base.Bold(true), th.Styles["heading"], "styles inherit from Default")
	assert.NotContains(t, th.Styles, "code")
}

func TestParseColor(t *testing.T) {
	c, err := parseColor(" #FF0000 ")
	require.NoError(t, err)
	assert.Equal(t, tcell.NewHexColor(0xff0000), c)

	c, err = parseColor("reset")
	require.NoError(t, err)
	assert.Equal(t, tcell.ColorReset, c)

	_, err = parseColor("#fff")
	assert.Error(t, err)
}

func TestManager(t *testing.T) {
	dir := t.TempDir()
	writeTheme(t, dir, "solar.toml", "name = \"Solar\"\n[styles.heading]\nfg = \"#ffaa00\"\n")
	writeTheme(t, dir, "notes.txt", "ignored")
	writeTheme(t, dir, "broken.toml", "name = ")

	m := NewManager(dir)
	assert.Equal(t, []string{"Collab Dark", "Collab Light", "Solar"}, m.ListThemes())
	assert.Equal(t, CollabDark, m.Current())

	require.NoError(t, m.SetTheme("solar"))
	assert.Equal(t, "Solar", m.Current().Name)
	assert.Error(t, m.SetTheme("missing"))
	assert.Equal(t, "Solar", m.Current().Name)

	assert.Len(t, NewManager(filepath.Join(dir, "absent")).ListThemes(), 2)
}
