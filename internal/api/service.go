// Package api implements the chatter.v1.Messenger gRPC service on top of the
// sqlite store and the in-process bus.
package api

import (
	"context"
	"slices"
	"time"

	"github.com/matheus3301/chatter/internal/bus"
	"github.com/matheus3301/chatter/internal/status"
	"github.com/matheus3301/chatter/internal/store"
	"github.com/matheus3301/chatter/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	// MaxRecipients caps the recipients of a new conversation.
	MaxRecipients = 9
	threadLimit   = 100
	searchLimit   = 20
)

// Service implements wire.MessengerServer.
type Service struct {
	wire.UnimplementedMessengerServer

	sessionName string
	startedAt   time.Time
	db          *store.DB
	bus         *bus.Bus
	machine     *status.Machine
	channels    []string
	logger      *zap.Logger
}

// NewService creates the messenger service. Realtime channels other than
// wire.DefaultChannel must be listed in extraChannels to be subscribable.
func NewService(sessionName string, db *store.DB, b *bus.Bus, machine *status.Machine, logger *zap.Logger, extraChannels ...string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	channels := []string{wire.DefaultChannel}
	for _, ch := range extraChannels {
		if ch != "" && !slices.Contains(channels, ch) {
			channels = append(channels, ch)
		}
	}
	return &Service{
		sessionName: sessionName,
		startedAt:   time.Now(),
		db:          db,
		bus:         b,
		machine:     machine,
		channels:    channels,
		logger:      logger,
	}
}

// Channels returns the realtime channels the service accepts.
func (s *Service) Channels() []string {
	return slices.Clone(s.channels)
}

func (s *Service) GetStatus(_ context.Context, _ *emptypb.Empty) (*wire.GetStatusResponse, error) {
	resp := &wire.GetStatusResponse{
		Session:  s.sessionName,
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	}
	if s.machine != nil {
		resp.State = string(s.machine.Current())
	}
	if s.bus != nil {
		resp.Subscribers = s.bus.Subscribers()
	}
	if s.db == nil {
		return resp, nil
	}

	var err error
	if resp.Users, err = s.db.UserCount(); err != nil {
		return nil, internal("count users", err)
	}
	if resp.Conversations, err = s.db.ConversationCount(); err != nil {
		return nil, internal("count conversations", err)
	}
	if resp.Messages, err = s.db.MessageCount(); err != nil {
		return nil, internal("count messages", err)
	}
	if resp.LastPosition, err = s.db.LastPosition(); err != nil {
		return nil, internal("last position", err)
	}
	return resp, nil
}

func internal(op string, err error) error {
	return grpcstatus.Errorf(codes.Internal, "%s: %v", op, err)
}
