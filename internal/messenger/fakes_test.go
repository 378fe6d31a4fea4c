package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeScheduler is a manual event loop: remote work waits until flushed and
// timers fire only when the clock is advanced.
type fakeScheduler struct {
	now    time.Duration
	work   []func(context.Context) func()
	queue  []func()
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) Go(work func(context.Context) func()) {
	s.work = append(s.work, work)
}

func (s *fakeScheduler) Post(reaction func()) {
	s.queue = append(s.queue, reaction)
}

func (s *fakeScheduler) AfterFunc(d time.Duration, reaction func()) func() {
	t := &fakeTimer{at: s.now + d, fn: reaction}
	s.timers = append(s.timers, t)
	return func() { t.stopped = true }
}

// Flush runs queued reactions and pending work until nothing is left.
func (s *fakeScheduler) Flush() {
	for len(s.queue) > 0 || len(s.work) > 0 {
		if len(s.queue) > 0 {
			r := s.queue[0]
			s.queue = s.queue[1:]
			r()
			continue
		}
		s.RunWork(0)
	}
}

// RunWork runs the i-th pending work item and applies its reaction.
func (s *fakeScheduler) RunWork(i int) {
	w := s.work[i]
	s.work = append(s.work[:i:i], s.work[i+1:]...)
	if r := w(context.Background()); r != nil {
		r()
	}
}

// Advance moves the clock, queueing the reactions of due timers.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.now += d
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			s.queue = append(s.queue, t.fn)
		}
	}
}

type sendCall struct {
	Text         string
	RecipientIDs string
}

type replyCall struct {
	Text          string
	LastMessageID string
}

// fakeBackend serves fixtures and records every call.
type fakeBackend struct {
	conversations []Conversation
	threads       map[string][]Message
	users         []User

	listErr    error
	threadErr  error
	searchErr  error
	sendErr    error
	replyErr   error
	publishErr error

	listCalls   int
	threadCalls map[string]int
	queries     []string
	sends       []sendCall
	replies     []replyCall
	published   []Event

	seq int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		conversations: fixtureConversations(),
		threads:       fixtureThreads(),
		users:         fixtureUsers(),
		threadCalls:   make(map[string]int),
	}
}

func (b *fakeBackend) GetConversations(context.Context) ([]Conversation, error) {
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]Conversation(nil), b.conversations...), nil
}

func (b *fakeBackend) GetConversation(_ context.Context, id string) ([]Message, error) {
	b.threadCalls[id]++
	if b.threadErr != nil {
		return nil, b.threadErr
	}
	return append([]Message(nil), b.threads[id]...), nil
}

func (b *fakeBackend) SearchUsers(_ context.Context, query string) ([]User, error) {
	b.queries = append(b.queries, query)
	if b.searchErr != nil {
		return nil, b.searchErr
	}
	return append([]User(nil), b.users...), nil
}

func (b *fakeBackend) SendMessage(_ context.Context, text, recipientIDs string) (SendResult, error) {
	b.sends = append(b.sends, sendCall{Text: text, RecipientIDs: recipientIDs})
	if b.sendErr != nil {
		return SendResult{}, b.sendErr
	}
	convID := "c-" + strings.ReplaceAll(recipientIDs, ",", "-")
	msgID := b.appendMessage(convID, text)
	return SendResult{ConversationID: convID, MessageID: msgID}, nil
}

func (b *fakeBackend) ReplyToMessage(_ context.Context, text, lastMessageID string) (string, error) {
	b.replies = append(b.replies, replyCall{Text: text, LastMessageID: lastMessageID})
	if b.replyErr != nil {
		return "", b.replyErr
	}
	for convID, msgs := range b.threads {
		for _, msg := range msgs {
			if msg.ID == lastMessageID {
				return b.appendMessage(convID, text), nil
			}
		}
	}
	return "", errors.New("unknown message")
}

func (b *fakeBackend) PublishMessageEvent(_ context.Context, evt Event) error {
	b.published = append(b.published, evt)
	return b.publishErr
}

// appendMessage stores a message oldest-first, the way the daemon returns them.
func (b *fakeBackend) appendMessage(convID, text string) string {
	b.seq++
	id := fmt.Sprintf("new-%d", b.seq)
	b.threads[convID] = append(b.threads[convID], Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       "me",
		Text:           text,
		Timestamp:      baseTime.Add(time.Duration(100+b.seq) * time.Minute),
	})
	return id
}

type fakeSubscription struct {
	unsubscribed bool
}

func (s *fakeSubscription) Unsubscribe() error {
	s.unsubscribed = true
	return nil
}

type subscribeCall struct {
	Channel    string
	ReplayFrom int64
}

type fakeTransport struct {
	calls     []subscribeCall
	onMessage func(Event)
	onError   []func(error)
	sub       *fakeSubscription
	err       error
}

func (t *fakeTransport) Subscribe(_ context.Context, channel string, replayFrom int64, onMessage func(Event)) (Subscription, error) {
	t.calls = append(t.calls, subscribeCall{Channel: channel, ReplayFrom: replayFrom})
	if t.err != nil {
		return nil, t.err
	}
	t.onMessage = onMessage
	t.sub = &fakeSubscription{}
	return t.sub, nil
}

func (t *fakeTransport) OnTransportError(fn func(error)) {
	t.onError = append(t.onError, fn)
}

func (t *fakeTransport) emit(evt Event) {
	t.onMessage(evt)
}

func (t *fakeTransport) fail(err error) {
	for _, fn := range t.onError {
		fn(err)
	}
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixtureConversations() []Conversation {
	return []Conversation{
		{ID: "c1", FormattedRecipientNames: "Bob, Carol", LatestMessageID: "m3", LatestMessageAt: baseTime.Add(3 * time.Minute)},
		{ID: "c2", FormattedRecipientNames: "Dave", LatestMessageID: "m5", LatestMessageAt: baseTime.Add(2 * time.Minute)},
		{ID: "c3", FormattedRecipientNames: "Alice", LatestMessageID: "m6", LatestMessageAt: baseTime.Add(time.Minute)},
	}
}

// fixtureThreads are stored oldest-first.
func fixtureThreads() map[string][]Message {
	return map[string][]Message{
		"c1": {
			{ID: "m1", ConversationID: "c1", SenderID: "u2", Text: "hi", Timestamp: baseTime},
			{ID: "m2", ConversationID: "c1", SenderID: "me", Text: "hello", Timestamp: baseTime.Add(time.Minute)},
			{ID: "m3", ConversationID: "c1", SenderID: "u3", Text: "lunch?", Timestamp: baseTime.Add(3 * time.Minute)},
		},
		"c2": {
			{ID: "m4", ConversationID: "c2", SenderID: "u4", Text: "ping", Timestamp: baseTime},
			{ID: "m5", ConversationID: "c2", SenderID: "me", Text: "pong", Timestamp: baseTime.Add(2 * time.Minute)},
		},
		"c3": {
			{ID: "m6", ConversationID: "c3", SenderID: "u1", Text: "yo", Timestamp: baseTime.Add(time.Minute)},
		},
	}
}

func fixtureUsers() []User {
	return []User{
		{ID: "u1", Name: "Alice", Username: "alice"},
		{ID: "u2", Name: "Bob", Username: "bob"},
		{ID: "u3", Name: "Carol", Username: "carol"},
		{ID: "u4", Name: "Dave", Username: "dave"},
	}
}

type harness struct {
	m         *Messenger
	sched     *fakeScheduler
	backend   *fakeBackend
	transport *fakeTransport
	logs      *observer.ObservedLogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		sched:     &fakeScheduler{},
		backend:   newFakeBackend(),
		transport: &fakeTransport{},
		logs:      logs,
	}
	h.m = New(Config{}, h.backend, h.transport, h.sched, zap.New(core))
	return h
}

// started returns a harness whose Messenger has loaded the conversation list.
func started(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.m.Start()
	h.sched.Flush()
	return h
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func messageIDs(msgs []Message) []string {
	return ids(msgs, func(m Message) string { return m.ID })
}

func userIDs(users []User) []string {
	return ids(users, func(u User) string { return u.ID })
}
