package views

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/tui/ui"
)

func TestConversationListKeepsSelection(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cl := NewConversationList(ui.DefaultTheme())
	cl.now = func() time.Time { return now }

	convs := []messenger.Conversation{
		{ID: "c1", FormattedRecipientNames: "Alice", LatestMessageAt: now.Add(-2 * time.Minute)},
		{ID: "c2", FormattedRecipientNames: "Bob, Carol", LatestMessageAt: now.Add(-time.Hour)},
		{ID: "c3", FormattedRecipientNames: "Dave"},
	}
	cl.Update(convs)
	if got := cl.SelectedID(); got != "c1" {
		t.Fatalf("initial selection = %q, want c1", got)
	}
	if got := strings.TrimSpace(cl.GetCell(1, 2).Text); got != "2 minutes ago" {
		t.Errorf("last active = %q", got)
	}
	if got := strings.TrimSpace(cl.GetCell(3, 2).Text); got != "-" {
		t.Errorf("last active without messages = %q", got)
	}

	cl.Select(2, 0)
	cl.Update([]messenger.Conversation{convs[1], convs[0], convs[2]})
	if got := cl.SelectedID(); got != "c2" {
		t.Errorf("selection after reorder = %q, want c2", got)
	}

	cl.SetFilter("CAROL")
	if cl.IDByIndex(1) != "c2" || cl.IDByIndex(2) != "" {
		t.Errorf("filtered = %q,%q", cl.IDByIndex(1), cl.IDByIndex(2))
	}
	if !strings.Contains(cl.GetTitle(), "(1/3)") {
		t.Errorf("title = %q", cl.GetTitle())
	}

	cl.SetFilter("")
	if cl.IDByIndex(3) != "c3" {
		t.Errorf("IDByIndex(3) = %q after clearing filter", cl.IDByIndex(3))
	}
}

func TestUserSearchUpdate(t *testing.T) {
	us := NewUserSearch(ui.DefaultTheme())
	var typed []string
	us.SetOnType(func(k string) { typed = append(typed, k) })
	var toggled []string
	us.SetOnToggle(func(u messenger.User, selected bool) {
		if selected {
			toggled = append(toggled, "+"+u.ID)
		} else {
			toggled = append(toggled, "-"+u.ID)
		}
	})

	alice := messenger.User{ID: "u1", Name: "Alice", Username: "alice"}
	bob := messenger.User{ID: "u2", Name: "Bob", Username: "bob"}
	us.Update(messenger.ViewModel{
		TypedKeyword:  "al",
		SearchResults: []messenger.User{alice, bob},
		Recipients:    []messenger.User{bob},
		Overfilled:    true,
	})

	if us.Input().GetText() != "al" {
		t.Errorf("input = %q", us.Input().GetText())
	}
	if len(typed) != 0 {
		t.Errorf("syncing the keyword reported edits %v", typed)
	}
	if !strings.Contains(us.Results().GetTitle(), "searching") {
		t.Errorf("title = %q while the keyword is pending", us.Results().GetTitle())
	}
	if us.Results().GetCell(1, 0).Text != "  " || strings.TrimSpace(us.Results().GetCell(2, 0).Text) != "✓" {
		t.Error("only Bob should be marked")
	}
	if text := us.recipients.GetText(true); !strings.Contains(text, "Bob") || !strings.Contains(text, "at most 9 recipients") {
		t.Errorf("recipients line = %q", text)
	}

	handler := us.Results().InputHandler()
	us.Results().Select(2, 0)
	handler(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), nil)
	us.Results().Select(1, 0)
	handler(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), nil)
	if strings.Join(toggled, ",") != "-u2,+u1" {
		t.Errorf("toggled = %v", toggled)
	}

	us.Input().SetText("alic")
	if len(typed) != 1 || typed[0] != "alic" {
		t.Errorf("typed = %v", typed)
	}
}

func TestConversationDetailRender(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	cd := NewConversationDetail(ui.DefaultTheme(), "me")
	cd.now = func() time.Time { return now }
	var drafts []string
	cd.SetOnDraft(func(s string) { drafts = append(drafts, s) })

	cd.Update(messenger.ViewModel{
		View:                    messenger.ConversationDetail,
		SelectedConversationID:  "c1",
		FormattedRecipientNames: "Alice",
		Messages: []messenger.Message{
			{ID: "m2", SenderID: "me", SenderName: "Me", Text: "second", Timestamp: now.Add(-time.Minute)},
			{ID: "m1", SenderID: "u1", SenderName: "Alice", Text: "first", Timestamp: now.Add(-2 * time.Minute)},
		},
		Draft: "half typed",
	})

	text := cd.Messages().GetText(true)
	first, second := strings.Index(text, "first"), strings.Index(text, "second")
	if first < 0 || second < 0 || first > second {
		t.Errorf("thread not rendered oldest first:\n%s", text)
	}
	if !strings.Contains(text, "You") || !strings.Contains(text, "Alice") || !strings.Contains(text, "11:58") {
		t.Errorf("thread = %q", text)
	}
	if cd.Composer().GetText() != "half typed" || len(drafts) != 0 {
		t.Errorf("composer = %q, reported drafts %v", cd.Composer().GetText(), drafts)
	}
	if cd.Name() != "Alice" {
		t.Errorf("Name() = %q", cd.Name())
	}

	cd.Update(messenger.ViewModel{FormattedRecipientNames: "Bob", Sending: true})
	if !strings.Contains(cd.Messages().GetTitle(), "New conversation with Bob") {
		t.Errorf("draft title = %q", cd.Messages().GetTitle())
	}
	if cd.Composer().GetText() != "" {
		t.Errorf("composer not cleared: %q", cd.Composer().GetText())
	}
}

func TestConversationDetailEnter(t *testing.T) {
	cd := NewConversationDetail(ui.DefaultTheme(), "me")
	var keys []bool
	cd.SetOnKey(func(key messenger.Key, shift bool) bool {
		if key != messenger.KeyEnter {
			t.Errorf("key = %v", key)
		}
		keys = append(keys, shift)
		return !shift
	})
	capture := cd.Composer().GetInputCapture()

	if ev := capture(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)); ev != nil {
		t.Error("Enter was not consumed")
	}
	ev := capture(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModAlt))
	if ev == nil || ev.Key() != tcell.KeyEnter || ev.Modifiers() != tcell.ModNone {
		t.Errorf("Alt-Enter = %v, want a plain Enter for the text area", ev)
	}
	if ev := capture(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)); ev == nil || ev.Rune() != 'x' {
		t.Error("runes must reach the text area")
	}
	if len(keys) != 2 || keys[0] || !keys[1] {
		t.Errorf("shift flags = %v", keys)
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, ""},
		{time.Date(2026, 3, 1, 9, 5, 0, 0, time.Local), "09:05"},
		{time.Date(2026, 2, 14, 9, 5, 0, 0, time.Local), "Feb 14 09:05"},
		{time.Date(2025, 12, 31, 23, 0, 0, 0, time.Local), "2025-12-31 23:00"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.in, now); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"\U0001F44D\U0001F3FD", "\U0001F44D"},
		{"\U0001F468\u200D\U0001F469\u200D\U0001F467", "\U0001F468\U0001F469\U0001F467"},
		{"\u2764\uFE0F", "\u2764"},
		{"héllo wörld", "héllo wörld"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
