package messenger

import (
	"context"
	"time"
)

// Conversation is the client's read-only copy of a server-side conversation summary.
type Conversation struct {
	ID                      string
	FormattedRecipientNames string
	LatestMessageID         string
	LatestMessageAt         time.Time
}

// Message is a single message of one conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderName     string
	Text           string
	Timestamp      time.Time
}

// User is a searchable directory entry and a potential recipient.
type User struct {
	ID       string
	Name     string
	Username string
}

// Event is a realtime notification that a conversation received a message.
type Event struct {
	ConversationID string
	MessageID      string
	Position       int64
}

// SendResult identifies the conversation and message created by SendMessage.
type SendResult struct {
	ConversationID string
	MessageID      string
}

// Backend is the remote data service.
type Backend interface {
	GetConversations(ctx context.Context) ([]Conversation, error)
	GetConversation(ctx context.Context, conversationID string) ([]Message, error)
	SearchUsers(ctx context.Context, query string) ([]User, error)
	// SendMessage starts (or continues) the conversation with exactly the given
	// recipients. recipientIDs is a comma-joined list of user ids.
	SendMessage(ctx context.Context, text, recipientIDs string) (SendResult, error)
	// ReplyToMessage appends to the conversation owning lastMessageID and
	// returns the new message id.
	ReplyToMessage(ctx context.Context, text, lastMessageID string) (string, error)
	PublishMessageEvent(ctx context.Context, evt Event) error
}

// Subscription is a live realtime subscription.
type Subscription interface {
	Unsubscribe() error
}

// Transport is the push channel carrying message events.
type Transport interface {
	Subscribe(ctx context.Context, channel string, replayFrom int64, onMessage func(Event)) (Subscription, error)
	OnTransportError(fn func(error))
}

// Replay positions understood by Transport.Subscribe.
const (
	ReplayNew int64 = -1
	ReplayAll int64 = -2
)
