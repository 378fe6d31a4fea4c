package messenger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartLoadsConversationsOnHome(t *testing.T) {
	h := started(t)

	require.Equal(t, Home, h.m.View())
	require.Equal(t, 1, h.backend.listCalls)
	require.Len(t, h.m.Conversations(), 3)
	require.Empty(t, h.m.Messages())
}

func TestNavigationKeepsExactlyOneView(t *testing.T) {
	tests := []struct {
		name string
		ops  []func(*Messenger)
		want View
	}{
		{"home to search", []func(*Messenger){(*Messenger).GoToUserSearch}, UserSearch},
		{"search to home", []func(*Messenger){(*Messenger).GoToUserSearch, (*Messenger).GoHome}, Home},
		{"open conversation", []func(*Messenger){open("c1")}, ConversationDetail},
		{"conversation back", []func(*Messenger){open("c1"), (*Messenger).GoBack}, Home},
		{"draft back", []func(*Messenger){(*Messenger).GoToUserSearch, (*Messenger).StartConversation, (*Messenger).GoBack}, UserSearch},
		{"back from home", []func(*Messenger){(*Messenger).GoBack}, UserSearch},
		{"reopen other", []func(*Messenger){open("c1"), (*Messenger).GoHome, open("c2")}, ConversationDetail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := started(t)
			for _, op := range tt.ops {
				op(h.m)
				h.sched.Flush()
				require.Contains(t, []View{Home, UserSearch, ConversationDetail}, h.m.View())
			}
			require.Equal(t, tt.want, h.m.View())
			require.Equal(t, tt.want, h.m.Snapshot().View)
		})
	}
}

func open(id string) func(*Messenger) {
	return func(m *Messenger) { m.OpenConversation(id) }
}

func TestGoBackFromConversationLandsHome(t *testing.T) {
	h := started(t)
	h.m.OpenConversation("c2")
	h.sched.Flush()

	h.m.GoBack()
	h.sched.Flush()

	require.Equal(t, Home, h.m.View())
	require.Empty(t, h.m.SelectedConversationID())
	require.Empty(t, h.m.Messages())
}

func TestGoBackFromDraftKeepsRecipients(t *testing.T) {
	h := started(t)
	h.m.GoToUserSearch()
	h.sched.Flush()
	h.m.AddRecipient("u2")
	h.m.StartConversation()
	require.Equal(t, ConversationDetail, h.m.View())
	require.Empty(t, h.m.SelectedConversationID())

	h.m.GoBack()
	h.sched.Flush()

	require.Equal(t, UserSearch, h.m.View())
	require.Equal(t, []string{"u2"}, userIDs(h.m.Recipients()))
}

func TestGoHomeDiscardsDraftAndRefreshesList(t *testing.T) {
	h := started(t)
	h.m.GoToUserSearch()
	h.sched.Flush()
	h.m.TypeKeyword("bo")
	h.sched.Advance(DefaultDebounce)
	h.sched.Flush()
	h.m.AddRecipient("u2")

	h.m.GoHome()
	h.sched.Flush()

	require.Equal(t, Home, h.m.View())
	require.Empty(t, h.m.TypedKeyword())
	require.Empty(t, h.m.CommittedKeyword())
	require.Empty(t, h.m.Recipients())
	require.False(t, h.m.Overfilled())
	require.Equal(t, 2, h.backend.listCalls)
}

func TestOpenConversationLoadsNewestFirst(t *testing.T) {
	h := started(t)

	h.m.OpenConversation("c1")
	require.Empty(t, h.m.Messages(), "thread is empty until the fetch resolves")
	h.sched.Flush()

	require.Equal(t, []string{"m3", "m2", "m1"}, messageIDs(h.m.Messages()))
	newest, ok := h.m.NewestMessage()
	require.True(t, ok)
	require.Equal(t, "m3", newest.ID)
	require.Equal(t, "Bob, Carol", h.m.FormattedRecipientNames())
}

func TestDraftHasNoThreadFetch(t *testing.T) {
	h := started(t)
	h.m.StartConversation()
	h.sched.Flush()

	require.Empty(t, h.m.Messages())
	require.Empty(t, h.backend.threadCalls)
}

func TestViewString(t *testing.T) {
	require.Equal(t, "home", Home.String())
	require.Equal(t, "user-search", UserSearch.String())
	require.Equal(t, "conversation-detail", ConversationDetail.String())
	require.Equal(t, "unknown", View(42).String())
}
