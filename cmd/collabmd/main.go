// cmd/collabmd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stlog "log" // Use standard log for FATAL errors before logger is ready
	"os"
	"os/signal"
	"syscall"

	"github.com/bethropolis/collabmd/internal/app"
	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/logger"
)

func main() {
	// --- Argument & Flag Parsing ---
	flags := config.NewFlags("collabmd")
	flags.DefineClientFlags()
	args, err := flags.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}
	if *flags.Version {
		fmt.Printf("%s %s\n", config.AppName, config.Version)
		os.Exit(0)
	}

	// The document to join is the first non-flag argument.
	var docID string
	if len(args) > 0 {
		docID = args[0]
	}

	cfg, undecoded, err := config.Load(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Logger Initialization ---
	// The terminal belongs to the editor, so logs go to a file.
	output, closeLog, err := logger.OpenOutput(cfg.Logger.LogFilePath, config.DefaultLogPath())
	if err != nil {
		stlog.Fatalf("Failed to open log output: %v", err)
	}
	defer closeLog()
	logger.Init(cfg.Logger, output)

	logger.Infof("Starting %s %s...", config.AppName, config.Version)
	for _, key := range undecoded {
		logger.Warnf("Unknown configuration key: %s", key)
	}
	if docID != "" {
		logger.Debugf("Joining document %s at %s", docID, cfg.Session.ServerURL)
	} else {
		logger.Debugf("No document given, creating one at %s", cfg.Session.ServerURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Create and Run App ---
	editor, err := app.New(cfg, app.Options{DocID: docID, ThemesDir: config.DefaultThemesDir()})
	if err != nil {
		logger.Errorf("Error initializing application: %v", err)
		fmt.Fprintf(os.Stderr, "collabmd: %v\n", err)
		os.Exit(1)
	}

	if err := editor.Run(ctx); err != nil {
		logger.Errorf("Application exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "collabmd: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("%s finished.", config.AppName)
}
