package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/messenger"
)

func TestHandleEvent(t *testing.T) {
	var got []string
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Label: "q", Description: "Quit", Visible: true,
		Handler: func() { got = append(got, "quit") }})
	r.AddGlobal(&Action{Key: tcell.KeyCtrlR, Label: "Ctrl-R", Description: "Refresh",
		Handler: func() { got = append(got, "global-refresh") }})
	r.AddView(messenger.ConversationDetail, &Action{Key: tcell.KeyCtrlR, Label: "Ctrl-R", Description: "Reload", Visible: true,
		Handler: func() { got = append(got, "thread-refresh") }})

	tests := []struct {
		name   string
		view   messenger.View
		ev     *tcell.EventKey
		typing bool
		want   string
	}{
		{"global rune", messenger.Home, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false, "quit"},
		{"rune skipped while typing", messenger.Home, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true, ""},
		{"view wins", messenger.ConversationDetail, tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl), true, "thread-refresh"},
		{"falls back to global", messenger.UserSearch, tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl), false, "global-refresh"},
		{"unbound", messenger.Home, tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			handled := r.HandleEvent(tt.view, tt.ev, tt.typing)
			if handled != (tt.want != "") {
				t.Errorf("handled = %v", handled)
			}
			if tt.want != "" && (len(got) != 1 || got[0] != tt.want) {
				t.Errorf("ran %v, want %s", got, tt.want)
			}
		})
	}
}

func TestHints(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Label: "?", Description: "Help", Visible: true})
	r.AddGlobal(&Action{Key: tcell.KeyCtrlC, Label: "Ctrl-C", Description: "Quit"})
	r.AddView(messenger.Home, &Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Visible: true})
	r.AddView(messenger.Home, &Action{Key: tcell.KeyCtrlN, Label: "Ctrl-N", Description: "New", Visible: true})

	hints := r.Hints(messenger.Home)
	var labels []string
	for _, h := range hints {
		labels = append(labels, h.Key)
	}
	if len(labels) != 3 || labels[0] != "Enter" || labels[1] != "Ctrl-N" || labels[2] != "?" {
		t.Errorf("Hints(Home) = %v", labels)
	}
	if got := r.Hints(messenger.UserSearch); len(got) != 1 {
		t.Errorf("Hints(UserSearch) = %v, want only the global hint", got)
	}
	if got := r.GlobalHints(); len(got) != 2 || got[1].Key != "Ctrl-C" {
		t.Errorf("GlobalHints() = %v", got)
	}
}
