package daemon

import (
	"context"

	"github.com/matheus3301/chatter/internal/api"
	"github.com/matheus3301/chatter/internal/bus"
	"github.com/matheus3301/chatter/internal/lock"
	"github.com/matheus3301/chatter/internal/logging"
	"github.com/matheus3301/chatter/internal/retention"
	"github.com/matheus3301/chatter/internal/session"
	"github.com/matheus3301/chatter/internal/status"
	"github.com/matheus3301/chatter/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	// Channels are realtime channels accepted besides the default one.
	Channels []string
	LogLevel string
	// RetainEvents caps the event log; 0 keeps every event.
	RetainEvents int
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideService,
			providePruner,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Path:    session.DaemonLogPath(p.SessionName),
		Session: p.SessionName,
		Level:   p.LogLevel,
		Console: true,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.LockPath(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired", zap.String("path", l.Path()))
	return l, nil
}

// provideStore depends on the lock so that only the lock holder migrates.
func provideStore(p Params, _ *lock.Lock, machine *status.Machine, logger *zap.Logger) (*store.DB, error) {
	transition(machine, logger, status.Migrating)

	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		transition(machine, logger, status.Error)
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		transition(machine, logger, status.Error)
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideService(p Params, db *store.DB, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *api.Service {
	return api.NewService(p.SessionName, db, b, machine, logger.Named("api"), p.Channels...)
}

func providePruner(p Params, db *store.DB, b *bus.Bus, logger *zap.Logger) *retention.Pruner {
	return retention.NewPruner(db, b, p.RetainEvents, logger.Named("retention"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, db *store.DB, lk *lock.Lock, pruner *retention.Pruner, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			pruner.Start(context.Background())
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			transition(machine, logger, status.Ready)
			srv.SetServing(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			transition(machine, logger, status.Stopping)
			srv.Stop(ctx)
			pruner.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

func transition(machine *status.Machine, logger *zap.Logger, to status.State) {
	from := machine.Current()
	if err := machine.Transition(to); err != nil {
		logger.Warn("status transition rejected", zap.Error(err))
		return
	}
	logger.Info("status changed", zap.String("from", string(from)), zap.String("to", string(to)))
}
