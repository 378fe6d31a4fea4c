package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/chatter/internal/client"
	"github.com/matheus3301/chatter/internal/config"
	"github.com/matheus3301/chatter/internal/logging"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/session"
	"github.com/matheus3301/chatter/internal/tui"
	"go.uber.org/zap"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	userFlag := flag.String("user", "", "user id (overrides config)")
	nameFlag := flag.String("name", "", "display name (overrides config)")
	replayFlag := flag.Int64("replay", 0, "replay from position; -1 new only, -2 everything (overrides config)")
	flag.Parse()

	if err := run(*sessionFlag, *userFlag, *nameFlag, *replayFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(sessionFlag, userFlag, nameFlag string, replay int64) error {
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return err
	}
	sessionName := session.Resolve(sessionFlag, cfg)
	if err := session.ValidateName(sessionName); err != nil {
		return err
	}
	me, err := identity(cfg.User, userFlag, nameFlag)
	if err != nil {
		return err
	}
	if replay != 0 {
		cfg.Realtime.ReplayFrom = replay
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := session.EnsureDir(sessionName); err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Path:    session.ClientLogPath(sessionName),
		Session: sessionName,
		Level:   cfg.Daemon.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	socketPath := session.SocketPath(sessionName)
	if !client.Probe(socketPath) {
		fmt.Fprintf(os.Stderr, "daemon not running for session %q, starting...\n", sessionName)
		if err := startDaemon(sessionName); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}
		if !client.WaitReady(socketPath, 10*time.Second) {
			return fmt.Errorf("daemon did not become ready, see %s", session.DaemonLogPath(sessionName))
		}
	}

	c, err := client.New(socketPath, me.ID)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Register(ctx, me.Name, me.Username); err != nil {
		return fmt.Errorf("register %s: %w", me.ID, err)
	}
	logger.Info("tui starting", zap.String("user", me.ID), zap.String("channel", cfg.Realtime.Channel))

	app := tui.NewApp(c, tui.Options{
		Session:  sessionName,
		UserName: me.Name,
		Messenger: messenger.Config{
			Channel:    cfg.Realtime.Channel,
			ReplayFrom: cfg.Realtime.ReplayFrom,
			Debounce:   cfg.Debounce(),
		},
		Logger: logger,
	})
	return app.Run()
}

func startDaemon(sessionName string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	chatterd := filepath.Join(filepath.Dir(executable), "chatterd")
	if _, err := os.Stat(chatterd); err != nil {
		chatterd = "chatterd"
	}

	cmd := exec.Command(chatterd, "--session", sessionName)
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
