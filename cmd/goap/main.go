package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeycumines/goap/internal/command"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/logging"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("goap", flag.ContinueOnError)
	global.SetOutput(stderr)
	var (
		configPath = global.String("config", "", "Config file (default: $GOAP_CONFIG, else ~/.goap/config)")
		logFile    = global.String("log-file", "", "Write JSON logs to this file")
		logLevel   = global.String("log-level", "", "Log level: debug, info, warn, error")
	)
	helpRequested := false
	if err := global.Parse(args); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			return err
		}
		helpRequested = true
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(*logFile, *logLevel, cfg, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)
	cfg.LogWarnings(logger)

	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, path))
	registry.Register(command.NewPlanCommand(cfg, logger))
	registry.Register(command.NewCheckCommand(cfg, logger))
	registry.Register(command.NewSimulateCommand(cfg, logger))
	registry.Register(command.NewHistoryCommand(cfg, logger))
	registry.Register(command.NewLogCommand(cfg, logger))
	registry.Register(command.NewCompletionCommand(registry, cfg, logger))

	rest := global.Args()
	if helpRequested || len(rest) == 0 {
		return helpCmd.Execute(ctx, nil, stdout, stderr)
	}

	cmd, err := registry.Get(rest[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", rest[0])
		_, _ = fmt.Fprintln(stderr, "Use 'goap help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: goap %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(rest[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return cmd.Execute(ctx, fs.Args(), stdout, stderr)
}
