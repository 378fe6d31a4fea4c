package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/chatter/internal/config"
	"github.com/matheus3301/chatter/internal/daemon"
	"github.com/matheus3301/chatter/internal/session"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	sessionName := session.Resolve(*sessionFlag, cfg)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	level := cfg.Daemon.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}

	app := fx.New(
		daemon.Module(daemon.Params{
			SessionName:  sessionName,
			Channels:     cfg.Daemon.Channels,
			LogLevel:     level,
			RetainEvents: cfg.Daemon.RetainEvents,
		}),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
			l.UseLogLevel(zap.DebugLevel)
			return l
		}),
	)

	app.Run()
}
