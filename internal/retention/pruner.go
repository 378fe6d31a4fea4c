// Package retention bounds the daemon's event log.
package retention

import (
	"context"
	"time"

	"github.com/matheus3301/chatter/internal/bus"
	"github.com/matheus3301/chatter/internal/store"
	"go.uber.org/zap"
)

const (
	// DefaultInterval is how often a pruner with pending events runs.
	DefaultInterval = time.Minute
	// pruneEvery triggers a prune early after this many published events.
	pruneEvery = 100
)

// Pruner keeps the newest Keep events of the log. It watches every realtime
// channel on the bus and prunes on a timer, or sooner after a burst.
type Pruner struct {
	db       *store.DB
	bus      *bus.Bus
	logger   *zap.Logger
	keep     int
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPruner creates a pruner. keep <= 0 disables pruning.
func NewPruner(db *store.DB, b *bus.Bus, keep int, logger *zap.Logger) *Pruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pruner{
		db:       db,
		bus:      b,
		logger:   logger,
		keep:     keep,
		interval: DefaultInterval,
	}
}

// Start prunes once and then watches the bus until Stop or ctx ends.
func (p *Pruner) Start(ctx context.Context) {
	if p.keep <= 0 {
		p.logger.Info("event retention disabled")
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	ch, unsub := p.bus.Subscribe("/", 256)
	p.prune()

	go func() {
		defer close(p.done)
		defer unsub()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		pending := 0
		for {
			select {
			case <-ch:
				pending++
				if pending >= pruneEvery {
					p.prune()
					pending = 0
				}
			case <-ticker.C:
				if pending > 0 {
					p.prune()
					pending = 0
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the pruner and waits for its goroutine.
func (p *Pruner) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Pruner) prune() {
	n, err := p.db.PruneEvents(p.keep)
	if err != nil {
		p.logger.Error("failed to prune events", zap.Error(err))
		return
	}
	if n > 0 {
		p.logger.Info("events pruned", zap.Int64("deleted", n), zap.Int("kept", p.keep))
	}
}
