package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatter/internal/api"
	"github.com/matheus3301/chatter/internal/bus"
	"github.com/matheus3301/chatter/internal/client"
	"github.com/matheus3301/chatter/internal/lock"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/session"
	"github.com/matheus3301/chatter/internal/status"
	"github.com/matheus3301/chatter/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

// shortHome points the session tree at a short /tmp path so socket paths stay
// under the 104-char limit on macOS.
func shortHome(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "chatter-d-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv(session.HomeEnv, dir)
	return dir
}

func newService(t *testing.T, dir string) *api.Service {
	t.Helper()
	db, err := store.Open(filepath.Join(dir, "chatter.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	b := bus.New()
	return api.NewService("test", db, b, status.NewMachine(b), zap.NewNop())
}

func TestServerHealthAndSocket(t *testing.T) {
	dir := shortHome(t)
	socketPath := filepath.Join(dir, "d.sock")

	srv, err := NewServer(Params{SessionName: "test", SocketPath: socketPath}, newService(t, dir), zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	go func() { _ = srv.Start() }()

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatalf("socket not created at %s: %v", socketPath, err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("socket permission = %o, want 0600", perm)
	}

	c, err := client.New(socketPath, "u1")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err == nil {
		t.Error("Ping() before SetServing succeeded, want NOT_SERVING")
	}
	srv.SetServing(true)
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := c.Register(ctx, "One", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	srv.Stop(context.Background())
	if _, err := os.Stat(socketPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket still present after Stop: %v", err)
	}
}

// Open realtime streams must not keep Stop waiting forever.
func TestServerStopCutsStreams(t *testing.T) {
	dir := shortHome(t)
	socketPath := filepath.Join(dir, "d.sock")
	srv, err := NewServer(Params{SessionName: "test", SocketPath: socketPath}, newService(t, dir), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()

	c, err := client.New(socketPath, "u1")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	if _, err := c.Register(context.Background(), "One", ""); err != nil {
		t.Fatal(err)
	}
	sub, err := c.Subscribe(context.Background(), "", messenger.ReplayNew, func(messenger.Event) {})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	start := time.Now()
	srv.Stop(context.Background())
	if took := time.Since(start); took > stopGrace+time.Second {
		t.Errorf("Stop() took %v", took)
	}
}

func TestFxModuleLifecycle(t *testing.T) {
	shortHome(t)
	p := Params{SessionName: "fxtest", LogLevel: "warn", RetainEvents: 100}

	app := fxtest.New(t, Module(p), fx.NopLogger)
	app.RequireStart()

	c, err := client.New(session.SocketPath(p.SessionName), "u1")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != string(status.Ready) || st.Session != "fxtest" {
		t.Errorf("status = %+v, want READY for fxtest", st)
	}

	// A second daemon for the same session must not start.
	second := fx.New(Module(p), fx.NopLogger)
	var held *lock.LockHeldError
	if err := second.Err(); !errors.As(err, &held) {
		t.Errorf("second daemon error = %v, want LockHeldError", err)
	}

	app.RequireStop()

	if _, err := os.Stat(session.LockPath(p.SessionName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lock file left behind: %v", err)
	}
	if _, err := os.Stat(session.DBPath(p.SessionName)); err != nil {
		t.Errorf("database missing: %v", err)
	}
}
