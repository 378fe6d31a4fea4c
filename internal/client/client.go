// Package client talks to chatterd over its unix socket and adapts the wire
// API to the messenger's Backend and Transport.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Client is a connection to chatterd acting as one user.
type Client struct {
	conn   *grpc.ClientConn
	rpc    *wire.MessengerClient
	health healthpb.HealthClient
	userID string

	mu sync.Mutex
	// channel is the realtime channel of the latest Subscribe; published
	// events go there too.
	channel  string
	onErrors []func(error)
}

var (
	_ messenger.Backend   = (*Client)(nil)
	_ messenger.Transport = (*Client)(nil)
)

// New dials the daemon socket. userID is sent with every call.
func New(socketPath, userID string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{
		conn:   conn,
		rpc:    wire.NewMessengerClient(conn),
		health: healthpb.NewHealthClient(conn),
		userID: userID,
	}, nil
}

// Close closes the connection and ends every subscription.
func (c *Client) Close() error {
	return c.conn.Close()
}

// UserID returns the identity the client calls as.
func (c *Client) UserID() string { return c.userID }

func (c *Client) ctx(ctx context.Context) context.Context {
	return wire.WithUser(ctx, c.userID)
}

// Ping reports whether the daemon answers its health check with SERVING.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("daemon is %s", resp.GetStatus())
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (*wire.GetStatusResponse, error) {
	return c.rpc.GetStatus(ctx)
}

// Register creates or renames the client's user.
func (c *Client) Register(ctx context.Context, name, username string) (messenger.User, error) {
	resp, err := c.rpc.RegisterUser(c.ctx(ctx), &wire.RegisterUserRequest{Name: name, Username: username})
	if err != nil {
		return messenger.User{}, err
	}
	return userFromWire(resp.User), nil
}

func (c *Client) GetConversations(ctx context.Context) ([]messenger.Conversation, error) {
	resp, err := c.rpc.GetConversations(c.ctx(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]messenger.Conversation, 0, len(resp.Conversations))
	for _, conv := range resp.Conversations {
		out = append(out, messenger.Conversation{
			ID:                      conv.ID,
			FormattedRecipientNames: conv.FormattedRecipientNames,
			LatestMessageID:         conv.LatestMessageID,
			LatestMessageAt:         fromUnixMs(conv.LatestMessageAtUnixMs),
		})
	}
	return out, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) ([]messenger.Message, error) {
	resp, err := c.rpc.GetConversation(c.ctx(ctx), &wire.GetConversationRequest{ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	out := make([]messenger.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, messenger.Message{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			SenderName:     m.SenderName,
			Text:           m.Text,
			Timestamp:      fromUnixMs(m.TimestampUnixMs),
		})
	}
	return out, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]messenger.User, error) {
	resp, err := c.rpc.SearchUsers(c.ctx(ctx), &wire.SearchUsersRequest{Query: query})
	if err != nil {
		return nil, err
	}
	out := make([]messenger.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		out = append(out, userFromWire(u))
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, text, recipientIDs string) (messenger.SendResult, error) {
	resp, err := c.rpc.SendMessage(c.ctx(ctx), &wire.SendMessageRequest{Text: text, RecipientIDs: recipientIDs})
	if err != nil {
		return messenger.SendResult{}, err
	}
	return messenger.SendResult{ConversationID: resp.ConversationID, MessageID: resp.ID}, nil
}

func (c *Client) ReplyToMessage(ctx context.Context, text, lastMessageID string) (string, error) {
	resp, err := c.rpc.ReplyToMessage(c.ctx(ctx), &wire.ReplyToMessageRequest{Text: text, LastMessageID: lastMessageID})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UseChannel sets the channel PublishMessageEvent publishes on until the next
// Subscribe.
func (c *Client) UseChannel(channel string) {
	c.mu.Lock()
	c.channel = channel
	c.mu.Unlock()
}

// PublishMessageEvent publishes on the channel of the latest Subscribe, or the
// daemon's default channel before any.
func (c *Client) PublishMessageEvent(ctx context.Context, evt messenger.Event) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	return c.rpc.PublishMessageEvent(c.ctx(ctx), &wire.PublishMessageEventRequest{
		Channel:        channel,
		ConversationID: evt.ConversationID,
		MessageID:      evt.MessageID,
	})
}

func userFromWire(u wire.User) messenger.User {
	return messenger.User{ID: u.ID, Name: u.Name, Username: u.Username}
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
