// cmd/collabmd-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bethropolis/collabmd/internal/config"
	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/server"
	"github.com/bethropolis/collabmd/internal/store"
)

func main() {
	flags := config.NewFlags("collabmd-server")
	flags.DefineServerFlags()
	if _, err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if *flags.Version {
		fmt.Printf("%s-server %s\n", config.AppName, config.Version)
		os.Exit(0)
	}

	cfg, undecoded, err := config.Load(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Fatalf("Failed to load configuration: %v", err)
	}

	output, closeLog, err := logger.OpenOutput(cfg.Logger.LogFilePath, "-")
	if err != nil {
		stlog.Fatalf("Failed to open log output: %v", err)
	}
	defer closeLog()
	logger.Init(cfg.Logger, output)
	for _, key := range undecoded {
		logger.Warnf("Unknown configuration key: %s", key)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Server)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.Server.Store, err)
	}
	defer st.Close()
	logger.Infof("Using %s store, history limit %d", cfg.Server.Store, cfg.Server.HistoryLimit)

	if err := server.New(cfg.Server, st).Run(ctx); err != nil {
		logger.Errorf("Server exited with error: %v", err)
		st.Close()
		os.Exit(1)
	}
}
