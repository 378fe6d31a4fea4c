package messenger

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Key is a key press in the compose field, as far as the Messenger cares.
type Key int

const (
	KeyOther Key = iota
	KeyEnter
)

// SetDraft records the compose field content.
func (m *Messenger) SetDraft(text string) {
	m.draft = text
	m.notify()
}

// Draft returns the compose field content.
func (m *Messenger) Draft() string { return m.draft }

// Sending reports whether a send is in flight.
func (m *Messenger) Sending() bool { return m.sending }

// KeyDown handles a key press in the compose field and reports whether the
// host must suppress the key's default action. Enter sends; Shift+Enter is
// left to insert a newline.
func (m *Messenger) KeyDown(key Key, shift bool) bool {
	if key != KeyEnter || shift {
		return false
	}
	m.Send()
	return true
}

// Send replies to the open conversation, or creates a conversation with the
// pending recipients when none is open. On failure the draft is kept so the
// user can retry.
func (m *Messenger) Send() {
	if m.sending || strings.TrimSpace(m.draft) == "" {
		return
	}
	if m.selectedID != "" {
		m.reply(m.selectedID, m.draft)
		return
	}
	m.sendNew(m.draft)
}

func (m *Messenger) reply(conversationID, text string) {
	lastID := m.replyTarget(conversationID)
	if lastID == "" {
		m.logger.Warn("not sending: conversation has no known message yet", zap.String("conversation_id", conversationID))
		return
	}
	m.sending = true
	m.notify()

	m.sched.Go(func(ctx context.Context) func() {
		id, err := m.backend.ReplyToMessage(ctx, text, lastID)
		return func() {
			m.sending = false
			defer m.notify()
			if err != nil {
				m.logger.Error("reply failed", zap.String("conversation_id", conversationID), zap.Error(err))
				return
			}
			m.clearDraft(text)
			if m.selectedID == conversationID {
				m.thread.Refresh()
			}
			m.publish(Event{ConversationID: conversationID, MessageID: id})
		}
	})
}

// replyTarget is the message a reply to conversationID answers: the newest
// loaded one, or the list's latest while the thread is still loading.
func (m *Messenger) replyTarget(conversationID string) string {
	if m.thread.Key() == conversationID {
		if newest, ok := m.NewestMessage(); ok {
			return newest.ID
		}
	}
	if c, ok := m.findConversation(conversationID); ok {
		return c.LatestMessageID
	}
	return ""
}

// clearDraft empties the draft unless it was edited after sent was taken.
func (m *Messenger) clearDraft(sent string) {
	if m.draft == sent {
		m.draft = ""
	}
}

func (m *Messenger) sendNew(text string) {
	if len(m.recipients) == 0 {
		m.logger.Warn("not sending: no recipients")
		return
	}
	ids := make([]string, len(m.recipients))
	for i, u := range m.recipients {
		ids[i] = u.ID
	}
	recipientIDs := strings.Join(ids, ",")
	m.sending = true
	m.notify()

	m.sched.Go(func(ctx context.Context) func() {
		res, err := m.backend.SendMessage(ctx, text, recipientIDs)
		return func() {
			m.sending = false
			defer m.notify()
			if err != nil {
				m.logger.Error("send failed", zap.String("recipients", recipientIDs), zap.Error(err))
				return
			}
			m.clearDraft(text)
			// The draft becomes a real conversation unless the user left it.
			if m.view == ConversationDetail && m.selectedID == "" {
				m.selectConversation(res.ConversationID)
				m.awaitingFirstLoad = true
				m.thread.Refresh()
			}
			m.publish(Event{ConversationID: res.ConversationID, MessageID: res.MessageID})
		}
	})
}

// publish tells other clients about a new message. Failures are only logged:
// the sender already sees the message through its own thread refresh.
func (m *Messenger) publish(evt Event) {
	m.sched.Go(func(ctx context.Context) func() {
		if err := m.backend.PublishMessageEvent(ctx, evt); err != nil {
			m.logger.Warn("publish message event failed",
				zap.String("conversation_id", evt.ConversationID),
				zap.String("message_id", evt.MessageID),
				zap.Error(err))
		}
		return nil
	})
}
