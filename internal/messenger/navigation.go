package messenger

// View is the screen currently shown. Exactly one is active at a time.
type View int

const (
	Home View = iota
	UserSearch
	ConversationDetail
)

func (v View) String() string {
	switch v {
	case Home:
		return "home"
	case UserSearch:
		return "user-search"
	case ConversationDetail:
		return "conversation-detail"
	default:
		return "unknown"
	}
}

// View returns the active view.
func (m *Messenger) View() View { return m.view }

// SelectedConversationID returns the open conversation, or "" while composing
// a new one.
func (m *Messenger) SelectedConversationID() string { return m.selectedID }

// GoHome shows the conversation list and abandons any draft conversation.
func (m *Messenger) GoHome() {
	m.view = Home
	m.selectConversation("")
	m.resetSearch()
	m.recipients = nil
	m.overfilled = false
	m.conversations.Refresh()
	m.notify()
}

// GoToUserSearch shows the recipient picker. Recipients picked earlier are kept.
func (m *Messenger) GoToUserSearch() {
	m.view = UserSearch
	m.users.Ensure()
	m.notify()
}

// OpenConversation shows the thread of an existing conversation.
func (m *Messenger) OpenConversation(id string) {
	m.view = ConversationDetail
	m.selectConversation(id)
	m.awaitingFirstLoad = id != ""
	m.thread.Refresh()
	m.notify()
}

// StartConversation shows the detail view for a conversation that does not
// exist yet; the first Send creates it from the pending recipients.
func (m *Messenger) StartConversation() {
	m.OpenConversation("")
}

// GoBack returns from the open conversation to Home, and from a draft to the
// recipient picker it was built in.
func (m *Messenger) GoBack() {
	if m.selectedID != "" {
		m.GoHome()
		return
	}
	m.GoToUserSearch()
}

func (m *Messenger) selectConversation(id string) {
	m.selectedID = id
	m.thread.SetKey(id)
	if id == "" {
		m.awaitingFirstLoad = false
	}
}
