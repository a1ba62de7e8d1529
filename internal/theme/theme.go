// Package theme maps style names used by the surface, status bar and
// highlighter to tcell styles.
package theme

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/collabmd/internal/logger"
)

// Theme is a named set of styles.
type Theme struct {
	Name   string
	IsDark bool
	Styles map[string]tcell.Style
}

// GetStyle looks up name, then the part of name before the first dot, then
// "Default".
func (t *Theme) GetStyle(name string) tcell.Style {
	if style, ok := t.Styles[name]; ok {
		return style
	}

	if dotIndex := strings.Index(name, "."); dotIndex != -1 {
		if style, ok := t.Styles[name[:dotIndex]]; ok {
			return style
		}
	}

	if defStyle, ok := t.Styles["Default"]; ok {
		return defStyle
	}

	logger.Warnf("Theme '%s': Style '%s' and 'Default' style not found, using tcell default.", t.Name, name)
	return tcell.StyleDefault
}

// CollabDark is the built-in dark theme.
var CollabDark = newCollabTheme("Collab Dark", true, palette{
	statusBg:   tcell.NewHexColor(0x2a2f38),
	foreground: tcell.NewHexColor(0xc5cdd9),
	muted:      tcell.NewHexColor(0x5c6370),
	orange:     tcell.NewHexColor(0xd19a66),
	yellow:     tcell.NewHexColor(0xe5c07b),
	green:      tcell.NewHexColor(0x98c379),
	cyan:       tcell.NewHexColor(0x56b6c2),
	blue:       tcell.NewHexColor(0x61afef),
	red:        tcell.NewHexColor(0xe06c75),
})

// CollabLight is the built-in light theme.
var CollabLight = newCollabTheme("Collab Light", false, palette{
	statusBg:   tcell.NewHexColor(0xe5e5e6),
	foreground: tcell.NewHexColor(0x383a42),
	muted:      tcell.NewHexColor(0xa0a1a7),
	orange:     tcell.NewHexColor(0x986801),
	yellow:     tcell.NewHexColor(0xc18401),
	green:      tcell.NewHexColor(0x50a14f),
	cyan:       tcell.NewHexColor(0x0184bc),
	blue:       tcell.NewHexColor(0x4078f2),
	red:        tcell.NewHexColor(0xe45649),
})

type palette struct {
	statusBg, foreground, muted            tcell.Color
	orange, yellow, green, cyan, blue, red tcell.Color
}

func newCollabTheme(name string, dark bool, p palette) *Theme {
	base := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(p.foreground)
	status := tcell.StyleDefault.Background(p.statusBg).Foreground(p.foreground)

	return &Theme{
		Name:   name,
		IsDark: dark,
		Styles: map[string]tcell.Style{
			"Default":     base,
			"Selection":   base.Reverse(true),
			"Placeholder": base.Foreground(p.muted).Italic(true),
			"LineNumber":  base.Foreground(p.muted),

			"StatusBar":             status,
			"StatusBarMessage":      status.Bold(true),
			"StatusBarConnected":    status.Foreground(p.green),
			"StatusBarConnecting":   status.Foreground(p.yellow),
			"StatusBarDisconnected": status.Foreground(p.red).Bold(true),
			"StatusBarUsers":        status.Foreground(p.cyan),

			// markdown
			"heading":        base.Foreground(p.blue).Bold(true),
			"heading.marker": base.Foreground(p.muted).Bold(true),
			"code":           base.Foreground(p.green),
			"label":          base.Foreground(p.orange).Italic(true),
			"quote":          base.Foreground(p.muted).Italic(true),
			"list":           base.Foreground(p.yellow).Bold(true),
			"rule":           base.Foreground(p.muted),
			"link":           base.Foreground(p.cyan).Underline(true),
		},
	}
}
