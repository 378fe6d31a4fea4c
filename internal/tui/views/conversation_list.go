package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the Home view: the caller's conversations, most recent
// first.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	convs   []messenger.Conversation
	visible []messenger.Conversation
	filter  string
	now     func() time.Time
}

func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	cl := &ConversationList{Table: table, theme: theme, now: time.Now}
	cl.render()
	return cl
}

func (cl *ConversationList) Name() string { return "Conversations" }

func (cl *ConversationList) FocusTarget() tview.Primitive { return cl.Table }

func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "1-9", Description: "Jump"},
		{Key: "/", Description: "Filter"},
	}
}

// SetOnOpen sets the callback for Enter on a conversation.
func (cl *ConversationList) SetOnOpen(fn func(conversationID string)) {
	cl.SetSelectedFunc(func(row, _ int) {
		if id := cl.idAt(row - 1); id != "" {
			fn(id)
		}
	})
}

// Update replaces the conversations, keeping the selected one selected.
func (cl *ConversationList) Update(convs []messenger.Conversation) {
	selected := cl.SelectedID()
	cl.convs = convs
	cl.render()
	cl.reselect(selected)
}

// SetFilter narrows the list to recipients containing filter, ignoring case.
func (cl *ConversationList) SetFilter(filter string) {
	selected := cl.SelectedID()
	cl.filter = strings.TrimSpace(filter)
	cl.render()
	cl.reselect(selected)
}

func (cl *ConversationList) Filter() string { return cl.filter }

// SelectedID returns the conversation under the cursor, or "".
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.idAt(row - 1)
}

// IDByIndex returns the Nth visible conversation (1-based), or "".
func (cl *ConversationList) IDByIndex(n int) string {
	return cl.idAt(n - 1)
}

func (cl *ConversationList) idAt(i int) string {
	if i < 0 || i >= len(cl.visible) {
		return ""
	}
	return cl.visible[i].ID
}

func (cl *ConversationList) reselect(id string) {
	for i, c := range cl.visible {
		if c.ID == id {
			cl.Select(i+1, 0)
			return
		}
	}
	if len(cl.visible) > 0 {
		cl.Select(1, 0)
	}
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" #", 0},
		{" RECIPIENTS", 1},
		{" LAST ACTIVE", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	needle := strings.ToLower(cl.filter)
	cl.visible = cl.visible[:0]
	for _, c := range cl.convs {
		if needle != "" && !strings.Contains(strings.ToLower(c.FormattedRecipientNames), needle) {
			continue
		}
		cl.visible = append(cl.visible, c)
		row := len(cl.visible)
		index := ""
		if row <= 9 {
			index = fmt.Sprintf(" %d", row)
		}
		cl.SetCell(row, 0, tview.NewTableCell(index).SetTextColor(cl.theme.CounterColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(c.FormattedRecipientNames))).
			SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(cl.lastActive(c.LatestMessageAt)+" ").
			SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
	}

	switch {
	case cl.filter != "":
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) /%s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	case len(cl.convs) == 0:
		cl.SetTitle(" Conversations (none yet, Ctrl-N to start one) ")
	default:
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

func (cl *ConversationList) lastActive(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, cl.now(), "ago", "from now")
}
