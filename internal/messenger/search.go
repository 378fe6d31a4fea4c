package messenger

import (
	"strings"
)

// TypeKeyword records the search box content. The search itself follows only
// after the keyword has been stable for the debounce delay.
func (m *Messenger) TypeKeyword(keyword string) {
	m.typedKeyword = keyword
	m.stopDebounce()
	m.debounceSeq++
	seq := m.debounceSeq
	m.cancelDebounce = m.sched.AfterFunc(m.cfg.Debounce, func() {
		if seq != m.debounceSeq {
			return
		}
		m.cancelDebounce = nil
		m.commitKeyword(keyword)
	})
	m.notify()
}

// TypedKeyword returns the search box content.
func (m *Messenger) TypedKeyword() string { return m.typedKeyword }

// CommittedKeyword returns the keyword the search results are for.
func (m *Messenger) CommittedKeyword() string { return m.users.Key() }

// SearchResults returns the users matching the committed keyword.
func (m *Messenger) SearchResults() []User { return m.users.Value() }

func (m *Messenger) commitKeyword(keyword string) {
	if m.users.SetKey(keyword) {
		m.users.Refresh()
	}
	m.notify()
}

func (m *Messenger) stopDebounce() {
	if m.cancelDebounce != nil {
		m.cancelDebounce()
		m.cancelDebounce = nil
	}
}

func (m *Messenger) resetSearch() {
	m.stopDebounce()
	m.debounceSeq++
	m.typedKeyword = ""
	// Fetched on the next visit to the picker.
	m.users.SetKey("")
}

// AddRecipient adds a user from the current search results to the pending
// recipients. Past the cap it raises the overfilled flag instead.
func (m *Messenger) AddRecipient(userID string) {
	defer m.notify()

	if len(m.recipients) >= MaxRecipients {
		m.overfilled = true
		return
	}
	if m.hasRecipient(userID) {
		return
	}
	for _, u := range m.users.Value() {
		if u.ID == userID {
			m.recipients = append(m.recipients, u)
			return
		}
	}
}

// RemoveRecipient drops a pending recipient.
func (m *Messenger) RemoveRecipient(userID string) {
	kept := make([]User, 0, len(m.recipients))
	for _, u := range m.recipients {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	m.recipients = kept
	if len(m.recipients) < MaxRecipients {
		m.overfilled = false
	}
	m.notify()
}

// Recipients returns the pending recipients in the order they were added.
func (m *Messenger) Recipients() []User { return m.recipients }

// HasRecipients reports whether any recipient is pending.
func (m *Messenger) HasRecipients() bool { return len(m.recipients) > 0 }

// Overfilled reports whether a recipient was refused because of the cap.
func (m *Messenger) Overfilled() bool { return m.overfilled }

func (m *Messenger) hasRecipient(userID string) bool {
	for _, u := range m.recipients {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// FormattedRecipientNames is the conversation header: the server-formatted
// names of the open conversation, or the pending recipients of a draft.
func (m *Messenger) FormattedRecipientNames() string {
	if m.selectedID != "" {
		if c, ok := m.findConversation(m.selectedID); ok {
			return c.FormattedRecipientNames
		}
	}
	names := make([]string, len(m.recipients))
	for i, u := range m.recipients {
		names[i] = u.Name
	}
	return strings.Join(names, ", ")
}
