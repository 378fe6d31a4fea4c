package messenger

import (
	"context"

	"go.uber.org/zap"
)

func (m *Messenger) subscribe() {
	if m.transport == nil {
		return
	}
	m.transport.OnTransportError(func(err error) {
		m.sched.Post(func() {
			m.logger.Warn("realtime transport error", zap.Error(err))
		})
	})

	channel, replay := m.cfg.Channel, m.cfg.ReplayFrom
	m.sched.Go(func(ctx context.Context) func() {
		sub, err := m.transport.Subscribe(ctx, channel, replay, func(evt Event) {
			m.sched.Post(func() { m.HandleEvent(evt) })
		})
		return func() {
			if err != nil {
				m.logger.Error("realtime subscribe failed", zap.String("channel", channel), zap.Error(err))
				return
			}
			if m.closed {
				_ = sub.Unsubscribe()
				return
			}
			m.sub = sub
			m.logger.Info("realtime subscribed", zap.String("channel", channel), zap.Int64("replay_from", replay))
		}
	})
}

// HandleEvent merges a realtime message event into whichever store it affects.
func (m *Messenger) HandleEvent(evt Event) {
	switch {
	case evt.ConversationID == "":
		return
	case evt.ConversationID == m.selectedID:
		if newest, ok := m.NewestMessage(); ok && newest.ID == evt.MessageID {
			m.logger.Debug("ignoring echo of loaded message", zap.String("message_id", evt.MessageID))
			return
		}
		m.thread.Refresh()
	case m.hasConversation(evt.ConversationID):
		m.conversations.Refresh()
	default:
		m.logger.Debug("ignoring event for unknown conversation", zap.String("conversation_id", evt.ConversationID))
	}
}

func (m *Messenger) hasConversation(id string) bool {
	_, ok := m.findConversation(id)
	return ok
}
