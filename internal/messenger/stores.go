package messenger

import (
	"slices"

	"go.uber.org/zap"
)

// Conversations returns the cached conversation list, most recent first.
func (m *Messenger) Conversations() []Conversation { return m.conversations.Value() }

// RefreshConversations refetches the conversation list.
func (m *Messenger) RefreshConversations() { m.conversations.Refresh() }

// Messages returns the open conversation's messages, newest first.
func (m *Messenger) Messages() []Message { return m.thread.Value() }

// RefreshThread refetches the open conversation's messages.
func (m *Messenger) RefreshThread() { m.thread.Refresh() }

// NewestMessage returns the newest loaded message of the open conversation.
func (m *Messenger) NewestMessage() (Message, bool) {
	msgs := m.thread.Value()
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[0], true
}

func (m *Messenger) findConversation(id string) (Conversation, bool) {
	for _, c := range m.conversations.Value() {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

// threadResolved runs once per successful thread fetch. The first non-empty
// thread after an open is compared against the list's summary: a list that
// knows a newer message than the thread means the thread fetch lost a race, so
// it is fetched once more.
func (m *Messenger) threadResolved() {
	defer m.notify()

	if !m.awaitingFirstLoad {
		return
	}
	newest, ok := m.NewestMessage()
	if !ok {
		return
	}
	m.awaitingFirstLoad = false

	if c, ok := m.findConversation(m.selectedID); ok && c.LatestMessageID != "" && c.LatestMessageID != newest.ID {
		m.logger.Info("thread behind conversation list, refreshing",
			zap.String("conversation_id", m.selectedID),
			zap.String("thread_latest", newest.ID),
			zap.String("list_latest", c.LatestMessageID))
		m.thread.Refresh()
	}
	if m.onLoaded != nil {
		m.onLoaded(m.selectedID)
	}
}

// newestFirst normalizes a backend thread to newest-first order, whatever
// order it arrived in. Ties keep their reversed arrival order, so an
// oldest-first thread whose messages share a timestamp still ends newest first.
func newestFirst(msgs []Message) []Message {
	out := slices.Clone(msgs)
	if len(out) > 1 && !out[0].Timestamp.After(out[len(out)-1].Timestamp) {
		slices.Reverse(out)
	}
	slices.SortStableFunc(out, func(a, b Message) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}
