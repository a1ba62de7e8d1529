// internal/config/flags.go
package config

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds values parsed from command-line flags.
// Only flags that were actually set override the configuration.
type Flags struct {
	fs *flag.FlagSet

	ConfigFilePath *string
	Version        *bool
	LogLevel       *string
	LogFilePath    *string
	EnableTags     *string
	DisableTags    *string
	EnablePkgs     *string
	DisablePkgs    *string

	// client
	ServerURL       *string
	UserName        *string
	TabWidth        *int
	Inference       *string
	SystemClipboard *bool
	Theme           *string

	// server
	ListenAddr   *string
	Store        *string
	BoltPath     *string
	RedisAddr    *string
	PostgresDSN  *string
	HistoryLimit *int
}

// NewFlags creates a flag set for the named binary.
func NewFlags(name string) *Flags {
	f := &Flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.defineCommon()
	return f
}

func (f *Flags) defineCommon() {
	f.ConfigFilePath = f.fs.String("config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	f.Version = f.fs.Bool("version", false, "Show version information and exit")
	f.LogLevel = f.fs.String("loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	f.LogFilePath = f.fs.String("logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	f.EnableTags = f.fs.String("log-tags", "", "Comma-separated list of tags to enable - Overrides config file")
	f.DisableTags = f.fs.String("log-disable-tags", "", "Comma-separated list of tags to disable - Overrides config file")
	f.EnablePkgs = f.fs.String("log-packages", "", "Comma-separated list of packages to enable - Overrides config file")
	f.DisablePkgs = f.fs.String("log-disable-packages", "", "Comma-separated list of packages to disable - Overrides config file")
}

// DefineClientFlags adds the terminal client's flags.
func (f *Flags) DefineClientFlags() {
	f.ServerURL = f.fs.String("server", "", "Websocket URL of the collabmd server - Overrides config file")
	f.UserName = f.fs.String("user", "", "Display name announced to other editors - Overrides config file")
	f.TabWidth = f.fs.Int("tabwidth", 0, "Number of spaces per tab - Overrides config file")
	f.Inference = f.fs.String("inference", "", "Edit inference strategy (caret, diff) - Overrides config file")
	f.SystemClipboard = f.fs.Bool("system-clipboard", false, "Use system clipboard instead of internal clipboard")
	f.Theme = f.fs.String("theme", "", "Color theme name - Overrides config file")
}

// DefineServerFlags adds the relay server's flags.
func (f *Flags) DefineServerFlags() {
	f.ListenAddr = f.fs.String("listen", "", "HTTP listen address - Overrides config file")
	f.Store = f.fs.String("store", "", "Snapshot store (memory, bolt, redis, postgres) - Overrides config file")
	f.BoltPath = f.fs.String("bolt-path", "", "bbolt database file - Overrides config file")
	f.RedisAddr = f.fs.String("redis-addr", "", "Redis address - Overrides config file")
	f.PostgresDSN = f.fs.String("postgres-dsn", "", "Postgres connection string - Overrides config file")
	f.HistoryLimit = f.fs.Int("history-limit", 0, "Operations retained per document for rebasing - Overrides config file")
}

// Parse parses args and returns the remaining non-flag arguments.
func (f *Flags) Parse(args []string) ([]string, error) {
	if err := f.fs.Parse(args); err != nil {
		return nil, err
	}
	return f.fs.Args(), nil
}

// ApplyOverrides updates cfg with values from flags *if* they were set.
func (f *Flags) ApplyOverrides(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "loglevel":
			if *f.LogLevel != "" {
				cfg.Logger.LogLevel = *f.LogLevel
			}
		case "logfile":
			cfg.Logger.LogFilePath = *f.LogFilePath
		case "log-tags":
			cfg.Logger.EnabledTags = splitCommaList(*f.EnableTags)
		case "log-disable-tags":
			cfg.Logger.DisabledTags = splitCommaList(*f.DisableTags)
		case "log-packages":
			cfg.Logger.EnabledPackages = splitCommaList(*f.EnablePkgs)
		case "log-disable-packages":
			cfg.Logger.DisabledPackages = splitCommaList(*f.DisablePkgs)
		case "server":
			if *f.ServerURL != "" {
				cfg.Session.ServerURL = *f.ServerURL
			}
		case "user":
			cfg.Session.UserName = *f.UserName
		case "tabwidth":
			if *f.TabWidth > 0 {
				cfg.Editor.TabWidth = *f.TabWidth
			}
		case "inference":
			cfg.Editor.Inference = *f.Inference
		case "system-clipboard":
			cfg.Editor.SystemClipboard = *f.SystemClipboard
		case "theme":
			if *f.Theme != "" {
				cfg.Editor.Theme = *f.Theme
			}
		case "listen":
			if *f.ListenAddr != "" {
				cfg.Server.ListenAddr = *f.ListenAddr
			}
		case "store":
			cfg.Server.Store = *f.Store
		case "bolt-path":
			cfg.Server.BoltPath = *f.BoltPath
		case "redis-addr":
			cfg.Server.RedisAddr = *f.RedisAddr
		case "postgres-dsn":
			cfg.Server.PostgresDSN = *f.PostgresDSN
		case "history-limit":
			if *f.HistoryLimit > 0 {
				cfg.Server.HistoryLimit = *f.HistoryLimit
			}
		}
	})
}

func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
