// Package commands holds application commands bound to keys.
package commands

import (
	"fmt"
	"strings"
)

// NextTheme activates the theme after the current one in ListThemes order,
// wrapping around, and announces it in the status bar.
func NextTheme(api ThemeAPI) error {
	themes := api.ListThemes()
	if len(themes) == 0 {
		return fmt.Errorf("no themes available")
	}

	next := themes[0]
	current := api.GetTheme()
	for i, name := range themes {
		if current != nil && strings.EqualFold(name, current.Name) {
			next = themes[(i+1)%len(themes)]
			break
		}
	}
	return SetTheme(api, next)
}

// SetTheme activates a theme by name, listing the available ones on failure.
func SetTheme(api ThemeAPI, name string) error {
	if err := api.SetTheme(name); err != nil {
		return fmt.Errorf("theme '%s' not found. Available: %s", name, strings.Join(api.ListThemes(), ", "))
	}
	api.SetStatusMessage("Theme set to: %s", api.GetTheme().Name)
	return nil
}
