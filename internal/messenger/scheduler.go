package messenger

import (
	"context"
	"time"
)

// Scheduler serializes every state mutation of a Messenger onto one event loop.
// Remote calls run elsewhere; only the reactions they return touch state.
type Scheduler interface {
	// Go runs work off the loop. The reaction it returns, if any, is queued
	// onto the loop.
	Go(work func(ctx context.Context) func())
	// Post queues a reaction onto the loop.
	Post(reaction func())
	// AfterFunc queues reaction onto the loop after d. Calling cancel before
	// the timer fires prevents it from being queued.
	AfterFunc(d time.Duration, reaction func()) (cancel func())
}

// QueueScheduler runs work on goroutines and hands reactions to post, which
// must execute them one at a time on the owning loop (for example
// tview.Application.QueueUpdateDraw).
type QueueScheduler struct {
	ctx  context.Context
	post func(func())
}

// NewQueueScheduler creates a scheduler bound to ctx. Work started after ctx is
// cancelled still runs, but its reaction is dropped.
func NewQueueScheduler(ctx context.Context, post func(func())) *QueueScheduler {
	return &QueueScheduler{ctx: ctx, post: post}
}

func (s *QueueScheduler) Go(work func(ctx context.Context) func()) {
	go func() {
		reaction := work(s.ctx)
		if reaction != nil {
			s.Post(reaction)
		}
	}()
}

func (s *QueueScheduler) Post(reaction func()) {
	if s.ctx.Err() != nil {
		return
	}
	s.post(reaction)
}

func (s *QueueScheduler) AfterFunc(d time.Duration, reaction func()) func() {
	t := time.AfterFunc(d, func() { s.Post(reaction) })
	return func() { t.Stop() }
}
