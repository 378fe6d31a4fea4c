// Package messenger is the client-side state machine of the chat screen. It
// keeps navigation, server-sourced data and the realtime feed consistent with
// each other. All methods must be called on the Scheduler's loop.
package messenger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxRecipients caps the recipients of a new conversation.
	MaxRecipients = 9

	DefaultDebounce = 300 * time.Millisecond
	DefaultChannel  = "/event/chatter/message"
)

// Config holds the fixed settings of a Messenger.
type Config struct {
	Channel string
	// ReplayFrom is the replay position of the subscription. Zero means
	// ReplayNew; positions start at 1, so ReplayAll covers "everything".
	ReplayFrom int64
	Debounce   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	if c.ReplayFrom == 0 {
		c.ReplayFrom = ReplayNew
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	return c
}

// Messenger is one chat screen.
type Messenger struct {
	cfg       Config
	backend   Backend
	transport Transport
	sched     Scheduler
	logger    *zap.Logger

	view       View
	selectedID string

	conversations *Resource[struct{}, []Conversation]
	thread        *Resource[string, []Message]
	users         *Resource[string, []User]

	typedKeyword   string
	debounceSeq    uint64
	cancelDebounce func()

	recipients []User
	overfilled bool

	draft   string
	sending bool

	// awaitingFirstLoad is raised when a conversation is opened and lowered by
	// the first non-empty thread for it.
	awaitingFirstLoad bool

	started   bool
	closed    bool
	sub       Subscription
	listeners []func()
	onLoaded  func(conversationID string)
}

// New creates a Messenger on the Home view. Nothing is fetched until Start.
func New(cfg Config, backend Backend, transport Transport, sched Scheduler, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Messenger{
		cfg:       cfg.withDefaults(),
		backend:   backend,
		transport: transport,
		sched:     sched,
		logger:    logger,
		view:      Home,
	}

	m.conversations = newResource("conversations", sched, logger, func(ctx context.Context, _ struct{}) ([]Conversation, error) {
		return backend.GetConversations(ctx)
	})
	m.conversations.onResolve = m.notify

	m.thread = newResource("thread", sched, logger, func(ctx context.Context, id string) ([]Message, error) {
		msgs, err := backend.GetConversation(ctx, id)
		if err != nil {
			return nil, err
		}
		return newestFirst(msgs), nil
	})
	m.thread.idle = func(id string) bool { return id == "" }
	m.thread.onResolve = m.threadResolved

	m.users = newResource("users", sched, logger, func(ctx context.Context, q string) ([]User, error) {
		return backend.SearchUsers(ctx, q)
	})
	m.users.onResolve = m.notify

	return m
}

// Start loads the conversation list and subscribes to the realtime channel.
// Only the first call has any effect.
func (m *Messenger) Start() {
	if m.started {
		return
	}
	m.started = true
	m.conversations.Refresh()
	m.subscribe()
}

// Close drops the realtime subscription.
func (m *Messenger) Close() {
	m.closed = true
	m.stopDebounce()
	if m.sub == nil {
		return
	}
	if err := m.sub.Unsubscribe(); err != nil {
		m.logger.Warn("unsubscribe failed", zap.Error(err))
	}
	m.sub = nil
}

// OnChange registers fn to run after every state change.
func (m *Messenger) OnChange(fn func()) {
	m.listeners = append(m.listeners, fn)
}

// OnConversationLoaded registers fn to run once per opened conversation, when
// its first non-empty thread arrives.
func (m *Messenger) OnConversationLoaded(fn func(conversationID string)) {
	m.onLoaded = fn
}

func (m *Messenger) notify() {
	for _, fn := range m.listeners {
		fn()
	}
}

// ViewModel is a read-only projection of the Messenger for rendering.
type ViewModel struct {
	View                    View
	SelectedConversationID  string
	Conversations           []Conversation
	Messages                []Message
	SearchResults           []User
	Recipients              []User
	Overfilled              bool
	TypedKeyword            string
	CommittedKeyword        string
	FormattedRecipientNames string
	Draft                   string
	Sending                 bool
}

// Snapshot returns the current projection. Slices are shared with the
// Messenger and must not be modified.
func (m *Messenger) Snapshot() ViewModel {
	return ViewModel{
		View:                    m.view,
		SelectedConversationID:  m.selectedID,
		Conversations:           m.conversations.Value(),
		Messages:                m.thread.Value(),
		SearchResults:           m.users.Value(),
		Recipients:              m.recipients,
		Overfilled:              m.overfilled,
		TypedKeyword:            m.typedKeyword,
		CommittedKeyword:        m.users.Key(),
		FormattedRecipientNames: m.FormattedRecipientNames(),
		Draft:                   m.draft,
		Sending:                 m.sending,
	}
}
