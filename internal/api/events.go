package api

import (
	"context"
	"slices"
	"time"

	"github.com/matheus3301/chatter/internal/bus"
	"github.com/matheus3301/chatter/internal/store"
	"github.com/matheus3301/chatter/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const replayBatch = 500

// PublishMessageEvent appends a message event to its channel's log and wakes
// the channel's subscribers.
func (s *Service) PublishMessageEvent(ctx context.Context, req *wire.PublishMessageEventRequest) (*emptypb.Empty, error) {
	channel, err := s.channel(req.Channel)
	if err != nil {
		return nil, err
	}
	if req.ConversationID == "" || req.MessageID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversationId and messageId are required")
	}
	msg, err := s.db.GetMessage(req.MessageID)
	if err != nil {
		return nil, internal("load message", err)
	}
	if msg == nil || msg.ConversationID != req.ConversationID {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "message %q is not in conversation %q", req.MessageID, req.ConversationID)
	}
	if err := s.requireMember(req.ConversationID, callerID(ctx)); err != nil {
		return nil, err
	}

	now := time.Now()
	evt := store.Event{
		Channel:        channel,
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		PublishedAt:    now.UnixMilli(),
	}
	if err := s.db.AppendEvent(&evt); err != nil {
		return nil, internal("append event", err)
	}
	s.bus.Publish(bus.Event{Topic: channel, Timestamp: now, Payload: evt})
	s.logger.Debug("message event published",
		zap.String("channel", channel),
		zap.Int64("position", evt.Position),
		zap.String("message_id", evt.MessageID))
	return &emptypb.Empty{}, nil
}

// Subscribe streams a channel's events for the conversations the caller is a
// member of. Retained events are replayed first according to ReplayFrom; the
// log is then re-read whenever the bus signals a new event, so a subscriber
// that falls behind catches up instead of losing events.
func (s *Service) Subscribe(req *wire.SubscribeRequest, stream grpc.ServerStreamingServer[wire.MessageEvent]) error {
	channel, err := s.channel(req.Channel)
	if err != nil {
		return err
	}
	ctx := stream.Context()
	me := callerID(ctx)

	var after int64
	switch {
	case req.ReplayFrom == wire.ReplayNew:
		if after, err = s.db.LastPosition(); err != nil {
			return internal("last position", err)
		}
	case req.ReplayFrom == wire.ReplayAll:
		after = 0
	case req.ReplayFrom >= 0:
		after = req.ReplayFrom
	default:
		return grpcstatus.Errorf(codes.InvalidArgument, "invalid replayFrom %d", req.ReplayFrom)
	}

	// Events appended from here on are after the start position, and the
	// first drain reads the log before waiting on the bus.
	wake, unsub := s.bus.Subscribe(channel, 64)
	defer unsub()

	// The header tells the client the start position is fixed, and where.
	if err := stream.SendHeader(wire.StartPositionHeader(after)); err != nil {
		return err
	}
	s.logger.Info("subscriber attached", zap.String("channel", channel), zap.String("user", me), zap.Int64("after", after))
	defer s.logger.Info("subscriber detached", zap.String("channel", channel), zap.String("user", me))

	members := make(map[string]bool)
	for {
		if after, err = s.drain(stream, channel, me, after, members); err != nil {
			return err
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return nil
		}
	}
}

// drain sends every logged event after position after and returns the last
// position it has looked at.
func (s *Service) drain(stream grpc.ServerStreamingServer[wire.MessageEvent], channel, me string, after int64, members map[string]bool) (int64, error) {
	for {
		events, err := s.db.EventsAfter(channel, after, replayBatch)
		if err != nil {
			return after, internal("read events", err)
		}
		for _, e := range events {
			after = e.Position
			visible, err := s.visible(e.ConversationID, me, members)
			if err != nil {
				return after, err
			}
			if !visible {
				continue
			}
			if err := stream.Send(eventToWire(e)); err != nil {
				return after, err
			}
		}
		if len(events) < replayBatch {
			return after, nil
		}
	}
}

// visible reports whether me may see events of a conversation. Positive
// answers are cached for the life of the stream; membership never shrinks.
func (s *Service) visible(conversationID, me string, cache map[string]bool) (bool, error) {
	if cache[conversationID] {
		return true, nil
	}
	ok, err := s.db.IsMember(conversationID, me)
	if err != nil {
		return false, internal("check membership", err)
	}
	if ok {
		cache[conversationID] = true
	}
	return ok, nil
}

func (s *Service) channel(name string) (string, error) {
	if name == "" {
		name = wire.DefaultChannel
	}
	if !slices.Contains(s.channels, name) {
		return "", grpcstatus.Errorf(codes.NotFound, "unknown channel %q", name)
	}
	return name, nil
}

func eventToWire(e store.Event) *wire.MessageEvent {
	return &wire.MessageEvent{
		Channel:           e.Channel,
		ConversationID:    e.ConversationID,
		MessageID:         e.MessageID,
		Position:          e.Position,
		PublishedAtUnixMs: e.PublishedAt,
	}
}
