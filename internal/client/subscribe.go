package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

const (
	minRetry = 500 * time.Millisecond
	maxRetry = 10 * time.Second
)

type subscription struct {
	cancel context.CancelFunc
}

// Unsubscribe ends the stream. Events already being delivered may still
// reach the callback.
func (s *subscription) Unsubscribe() error {
	s.cancel()
	return nil
}

func (c *Client) OnTransportError(fn func(error)) {
	c.mu.Lock()
	c.onErrors = append(c.onErrors, fn)
	c.mu.Unlock()
}

func (c *Client) transportError(err error) {
	c.mu.Lock()
	fns := append([]func(error){}, c.onErrors...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// Subscribe opens a realtime channel and returns once the daemon has fixed the
// start position. onMessage runs on the stream's goroutine. A broken stream is
// reported through OnTransportError and reopened after the last delivered
// position; rejections such as an unknown channel are reported once.
func (c *Client) Subscribe(ctx context.Context, channel string, replayFrom int64, onMessage func(messenger.Event)) (messenger.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, from, err := c.open(ctx, channel, replayFrom)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	c.mu.Lock()
	c.channel = channel
	c.mu.Unlock()

	go c.pump(ctx, stream, channel, from, onMessage)
	return &subscription{cancel: cancel}, nil
}

// open subscribes and returns the stream with the position it starts after.
// A reconnect resumes from that position, so a ReplayNew stream that breaks
// before its first event still gets what was published in between.
func (c *Client) open(ctx context.Context, channel string, replayFrom int64) (grpc.ServerStreamingClient[wire.MessageEvent], int64, error) {
	stream, err := c.rpc.Subscribe(c.ctx(ctx), &wire.SubscribeRequest{Channel: channel, ReplayFrom: replayFrom})
	if err != nil {
		return nil, 0, err
	}
	// Blocks until the daemon sends its header. A rejected call has no header
	// and its status surfaces on Recv instead.
	md, err := stream.Header()
	if err != nil {
		return nil, 0, err
	}
	if after, ok := wire.StartPosition(md); ok {
		return stream, after, nil
	}
	return stream, replayFrom, nil
}

func (c *Client) pump(ctx context.Context, stream grpc.ServerStreamingClient[wire.MessageEvent], channel string, from int64, onMessage func(messenger.Event)) {
	delay := minRetry
	for {
		err := receive(stream, func(evt *wire.MessageEvent) {
			from = evt.Position
			delay = minRetry
			onMessage(messenger.Event{
				ConversationID: evt.ConversationID,
				MessageID:      evt.MessageID,
				Position:       evt.Position,
			})
		})
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("stream closed by daemon")
		}
		c.transportError(fmt.Errorf("realtime channel %s: %w", channel, err))
		if !retryable(err) {
			return
		}

		for {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay = min(delay*2, maxRetry)
			if stream, _, err = c.open(ctx, channel, from); err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.transportError(fmt.Errorf("reopen realtime channel %s: %w", channel, err))
		}
	}
}

func receive(stream grpc.ServerStreamingClient[wire.MessageEvent], fn func(*wire.MessageEvent)) error {
	for {
		evt, err := stream.Recv()
		if err != nil {
			return err
		}
		fn(evt)
	}
}

func retryable(err error) bool {
	switch grpcstatus.Code(err) {
	case codes.NotFound, codes.InvalidArgument, codes.Unauthenticated, codes.FailedPrecondition, codes.PermissionDenied:
		return false
	}
	return true
}
