package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationDetail shows one conversation, or the draft of a new one, with a
// composer below it.
type ConversationDetail struct {
	*tview.Flex
	theme    *ui.Theme
	selfID   string
	messages *tview.TextView
	composer *tview.TextArea

	newestID string
	title    string
	syncing  bool
	now      func() time.Time

	onDraft func(text string)
	onKey   func(key messenger.Key, shift bool) bool
}

func NewConversationDetail(theme *ui.Theme, selfID string) *ConversationDetail {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewTextArea().
		SetPlaceholder("Write a message. Enter sends, Alt-Enter adds a line.")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetTitleColor(theme.TitleColor)
	composer.SetTitle(" Message ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, false).
		AddItem(composer, 5, 0, true)

	cd := &ConversationDetail{
		Flex:     flex,
		theme:    theme,
		selfID:   selfID,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}

	composer.SetChangedFunc(func() {
		if !cd.syncing && cd.onDraft != nil {
			cd.onDraft(composer.GetText())
		}
	})
	composer.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() != tcell.KeyEnter || cd.onKey == nil {
			return ev
		}
		// Terminals rarely report Shift-Enter, so Alt-Enter counts as well.
		shift := ev.Modifiers()&(tcell.ModShift|tcell.ModAlt) != 0
		if cd.onKey(messenger.KeyEnter, shift) {
			return nil
		}
		if shift {
			return tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
		}
		return ev
	})
	return cd
}

func (cd *ConversationDetail) Name() string {
	if cd.title != "" {
		return cd.title
	}
	return "Conversation"
}

func (cd *ConversationDetail) FocusTarget() tview.Primitive { return cd.composer }

func (cd *ConversationDetail) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Alt-Enter", Description: "Newline"},
		{Key: "Ctrl-R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnDraft sets the callback for composer edits.
func (cd *ConversationDetail) SetOnDraft(fn func(text string)) { cd.onDraft = fn }

// SetOnKey sets the callback for Enter in the composer. A true result
// consumes the key.
func (cd *ConversationDetail) SetOnKey(fn func(key messenger.Key, shift bool) bool) { cd.onKey = fn }

// Composer returns the message input.
func (cd *ConversationDetail) Composer() *tview.TextArea { return cd.composer }

// Messages returns the thread view.
func (cd *ConversationDetail) Messages() *tview.TextView { return cd.messages }

// ScrollToLatest shows the newest message.
func (cd *ConversationDetail) ScrollToLatest() { cd.messages.ScrollToEnd() }

// Update renders the open conversation of vm.
func (cd *ConversationDetail) Update(vm messenger.ViewModel) {
	cd.title = vm.FormattedRecipientNames
	heading := tview.Escape(sanitizeForTerminal(vm.FormattedRecipientNames))
	if vm.SelectedConversationID == "" {
		cd.messages.SetTitle(fmt.Sprintf(" New conversation with %s ", heading))
	} else {
		cd.messages.SetTitle(fmt.Sprintf(" %s (%d) ", heading, len(vm.Messages)))
	}

	if cd.composer.GetText() != vm.Draft {
		cd.syncing = true
		cd.composer.SetText(vm.Draft, true)
		cd.syncing = false
	}
	if vm.Sending {
		cd.composer.SetTitle(" Message (sending…) ")
	} else {
		cd.composer.SetTitle(" Message ")
	}

	newest := ""
	if len(vm.Messages) > 0 {
		newest = vm.Messages[0].ID
	}
	cd.messages.SetText(cd.render(vm))
	if newest != cd.newestID {
		cd.newestID = newest
		cd.messages.ScrollToEnd()
	}
}

func (cd *ConversationDetail) render(vm messenger.ViewModel) string {
	if len(vm.Messages) == 0 {
		if vm.SelectedConversationID == "" {
			return fmt.Sprintf("\n [%s]Type the first message below.[-]", ui.Tag(cd.theme.CounterColor))
		}
		return fmt.Sprintf("\n [%s]No messages.[-]", ui.Tag(cd.theme.CounterColor))
	}

	var b strings.Builder
	// Messages arrive newest first.
	for i := len(vm.Messages) - 1; i >= 0; i-- {
		m := vm.Messages[i]
		sender, color := m.SenderName, cd.theme.SenderColor
		if sender == "" {
			sender = m.SenderID
		}
		if m.SenderID == cd.selfID {
			sender, color = "You", cd.theme.OwnSenderColor
		}
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			ui.Tag(color), tview.Escape(sanitizeForTerminal(sender)),
			formatTimestamp(m.Timestamp, cd.now()),
			tview.Escape(sanitizeForTerminal(m.Text)))
	}
	return b.String()
}

// formatTimestamp prints the time of day for today's messages and the date
// otherwise.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now = now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2 15:04")
	}
	return t.Format("2006-01-02 15:04")
}
