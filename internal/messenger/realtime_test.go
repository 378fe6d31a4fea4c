package messenger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartSubscribesOnce(t *testing.T) {
	h := started(t)
	h.m.Start()
	h.sched.Flush()

	require.Equal(t, []subscribeCall{{Channel: DefaultChannel, ReplayFrom: ReplayNew}}, h.transport.calls)
	require.Equal(t, 1, h.backend.listCalls)
}

func TestSubscribeUsesConfiguredChannel(t *testing.T) {
	sched := &fakeScheduler{}
	transport := &fakeTransport{}
	m := New(Config{Channel: "/event/test", ReplayFrom: ReplayAll}, newFakeBackend(), transport, sched, nil)
	m.Start()
	sched.Flush()

	require.Equal(t, []subscribeCall{{Channel: "/event/test", ReplayFrom: ReplayAll}}, transport.calls)
}

func TestEchoOfNewestMessageIsIgnored(t *testing.T) {
	h := openConversation(t, "c1")
	listCalls := h.backend.listCalls

	h.transport.emit(Event{ConversationID: "c1", MessageID: "m3"})
	h.sched.Flush()

	require.Equal(t, 1, h.backend.threadCalls["c1"])
	require.Equal(t, listCalls, h.backend.listCalls)
}

func TestEchoIsIgnoredWhenTimestampsTie(t *testing.T) {
	h := newHarness(t)
	h.backend.threads["c1"] = []Message{
		{ID: "m-a", ConversationID: "c1", SenderID: "u2", Text: "one", Timestamp: baseTime},
		{ID: "m-b", ConversationID: "c1", SenderID: "me", Text: "two", Timestamp: baseTime},
	}
	h.backend.conversations[0].LatestMessageID = "m-b"
	h.m.Start()
	h.sched.Flush()
	h.m.OpenConversation("c1")
	h.sched.Flush()

	newest, ok := h.m.NewestMessage()
	require.True(t, ok)
	require.Equal(t, "m-b", newest.ID)
	require.Equal(t, 1, h.backend.threadCalls["c1"], "list and thread agree")

	h.transport.emit(Event{ConversationID: "c1", MessageID: "m-b"})
	h.sched.Flush()
	require.Equal(t, 1, h.backend.threadCalls["c1"])
}

func TestNewMessageEventRefreshesOpenThreadOnce(t *testing.T) {
	h := openConversation(t, "c1")
	h.backend.threads["c1"] = append(h.backend.threads["c1"], Message{
		ID: "m9", ConversationID: "c1", SenderID: "u2", Text: "news", Timestamp: baseTime.Add(10 * time.Minute),
	})

	h.transport.emit(Event{ConversationID: "c1", MessageID: "m9"})
	h.sched.Flush()

	require.Equal(t, 2, h.backend.threadCalls["c1"])
	newest, _ := h.m.NewestMessage()
	require.Equal(t, "m9", newest.ID)
}

func TestEventForListedConversationRefreshesList(t *testing.T) {
	h := openConversation(t, "c1")

	h.transport.emit(Event{ConversationID: "c2", MessageID: "m42"})
	h.sched.Flush()

	require.Equal(t, 2, h.backend.listCalls)
	require.Equal(t, 1, h.backend.threadCalls["c1"])
}

func TestEventForUnknownConversationIsIgnored(t *testing.T) {
	h := started(t)

	h.transport.emit(Event{ConversationID: "elsewhere", MessageID: "x"})
	h.transport.emit(Event{})
	h.sched.Flush()

	require.Equal(t, 1, h.backend.listCalls)
	require.Empty(t, h.backend.threadCalls)
}

func TestTransportErrorIsOnlyLogged(t *testing.T) {
	h := openConversation(t, "c1")
	before := h.m.Snapshot()

	h.transport.fail(errors.New("socket closed"))
	h.sched.Flush()

	require.Equal(t, 1, h.logs.FilterMessage("realtime transport error").Len())
	require.Equal(t, before.View, h.m.View())
	require.Equal(t, 1, h.backend.listCalls)
	require.Len(t, h.transport.calls, 1, "no resubscribe")
}

func TestSubscribeFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	h.transport.err = errors.New("refused")
	h.m.Start()
	h.sched.Flush()

	require.Equal(t, 1, h.logs.FilterMessage("realtime subscribe failed").Len())
	require.Equal(t, Home, h.m.View())
}

func TestCloseUnsubscribes(t *testing.T) {
	h := started(t)
	h.m.Close()

	require.True(t, h.transport.sub.unsubscribed)
}

func TestCloseBeforeSubscribeResolves(t *testing.T) {
	h := newHarness(t)
	h.m.Start()
	h.m.Close()
	h.sched.Flush()

	require.True(t, h.transport.sub.unsubscribed)
}
