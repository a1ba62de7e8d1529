package commands

import "github.com/bethropolis/collabmd/internal/theme"

// ThemeAPI is what theme commands need from the application.
type ThemeAPI interface {
	SetTheme(name string) error
	GetTheme() *theme.Theme
	ListThemes() []string
	SetStatusMessage(format string, args ...interface{})
}
