package commands

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/collabmd/internal/theme"
)

type fakeThemes struct {
	manager *theme.Manager
	message string
}

func (f *fakeThemes) SetTheme(name string) error { return f.manager.SetTheme(name) }
func (f *fakeThemes) GetTheme() *theme.Theme     { return f.manager.Current() }
func (f *fakeThemes) ListThemes() []string       { return f.manager.ListThemes() }

func (f *fakeThemes) SetStatusMessage(format string, args ...interface{}) {
	f.message = fmt.Sprintf(format, args...)
}

func TestNextThemeWraps(t *testing.T) {
	api := &fakeThemes{manager: theme.NewManager("")}
	require.Equal(t, "Collab Dark", api.GetTheme().Name)

	require.NoError(t, NextTheme(api))
	assert.Equal(t, "Collab Light", api.GetTheme().Name)
	assert.Equal(t, "Theme set to: Collab Light", api.message)

	require.NoError(t, NextTheme(api))
	assert.Equal(t, "Collab Dark", api.GetTheme().Name)
}

func TestSetThemeListsAvailable(t *testing.T) {
	api := &fakeThemes{manager: theme.NewManager("")}
	err := SetTheme(api, "solarized")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Collab Dark, Collab Light")
}
