package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/tui/ui"
	"github.com/rivo/tview"
)

// UserSearch picks the recipients of a new conversation.
type UserSearch struct {
	*tview.Flex
	theme      *ui.Theme
	input      *tview.InputField
	recipients *tview.TextView
	results    *tview.Table

	users    []messenger.User
	selected map[string]bool
	syncing  bool

	onType   func(keyword string)
	onToggle func(u messenger.User, selected bool)
}

func NewUserSearch(theme *ui.Theme) *UserSearch {
	input := tview.NewInputField().
		SetLabel(" To: ").
		SetFieldWidth(0).
		SetPlaceholder("name or username")
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	recipients := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	recipients.SetBackgroundColor(theme.BgColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(recipients, 1, 0, false).
		AddItem(results, 0, 1, false)

	us := &UserSearch{
		Flex:       flex,
		theme:      theme,
		input:      input,
		recipients: recipients,
		results:    results,
		selected:   make(map[string]bool),
	}

	input.SetChangedFunc(func(text string) {
		if !us.syncing && us.onType != nil {
			us.onType(text)
		}
	})
	results.SetSelectedFunc(func(row, _ int) {
		i := row - 1
		if i < 0 || i >= len(us.users) || us.onToggle == nil {
			return
		}
		u := us.users[i]
		us.onToggle(u, !us.selected[u.ID])
	})

	us.Update(messenger.ViewModel{})
	return us
}

func (us *UserSearch) Name() string { return "New conversation" }

func (us *UserSearch) FocusTarget() tview.Primitive { return us.input }

func (us *UserSearch) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Results/Input"},
		{Key: "Enter", Description: "Toggle recipient"},
		{Key: "Ctrl-N", Description: "Start"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// SetOnType sets the callback for edits of the search keyword.
func (us *UserSearch) SetOnType(fn func(keyword string)) { us.onType = fn }

// SetOnToggle sets the callback for Enter on a result. selected is the state
// the user asked for.
func (us *UserSearch) SetOnToggle(fn func(u messenger.User, selected bool)) { us.onToggle = fn }

// Input returns the keyword field.
func (us *UserSearch) Input() *tview.InputField { return us.input }

// Results returns the results table.
func (us *UserSearch) Results() *tview.Table { return us.results }

// Update renders the search state of vm.
func (us *UserSearch) Update(vm messenger.ViewModel) {
	if us.input.GetText() != vm.TypedKeyword {
		us.syncing = true
		us.input.SetText(vm.TypedKeyword)
		us.syncing = false
	}

	clear(us.selected)
	for _, r := range vm.Recipients {
		us.selected[r.ID] = true
	}
	us.renderRecipients(vm)
	us.renderResults(vm)
}

func (us *UserSearch) renderRecipients(vm messenger.ViewModel) {
	var b strings.Builder
	b.WriteString(" ")
	if len(vm.Recipients) == 0 {
		fmt.Fprintf(&b, "[%s]no recipients yet[-]", ui.Tag(us.theme.CounterColor))
	}
	for _, r := range vm.Recipients {
		fmt.Fprintf(&b, "[%s:%s] %s [-:-] ", ui.Tag(us.theme.PillFg), ui.Tag(us.theme.PillBg),
			tview.Escape(sanitizeForTerminal(r.Name)))
	}
	if vm.Overfilled {
		fmt.Fprintf(&b, " [%s]at most %d recipients[-]", ui.Tag(us.theme.FlashWarnColor), messenger.MaxRecipients)
	}
	us.recipients.SetText(b.String())
}

func (us *UserSearch) renderResults(vm messenger.ViewModel) {
	row, _ := us.results.GetSelection()
	us.users = vm.SearchResults
	us.results.Clear()

	for col, h := range []string{"  ", " NAME", " USERNAME"} {
		us.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(us.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold))
	}
	for i, u := range us.users {
		mark := "  "
		if us.selected[u.ID] {
			mark = " ✓"
		}
		us.results.SetCell(i+1, 0, tview.NewTableCell(mark).SetTextColor(us.theme.OwnSenderColor))
		us.results.SetCell(i+1, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(u.Name))).
			SetExpansion(1).SetTextColor(us.theme.FgColor))
		us.results.SetCell(i+1, 2, tview.NewTableCell(" "+tview.Escape(u.Username)).SetTextColor(us.theme.FgColor))
	}
	if row < 1 || row > len(us.users) {
		row = 1
	}
	us.results.Select(row, 0)

	switch {
	case vm.TypedKeyword != vm.CommittedKeyword:
		us.results.SetTitle(" Users (searching…) ")
	case vm.CommittedKeyword != "":
		us.results.SetTitle(fmt.Sprintf(" Users matching %q (%d) ", tview.Escape(vm.CommittedKeyword), len(us.users)))
	default:
		us.results.SetTitle(fmt.Sprintf(" Users (%d) ", len(us.users)))
	}
}

// ToggleFocus moves focus between the keyword field and the results.
func (us *UserSearch) ToggleFocus(setFocus func(tview.Primitive)) {
	if us.input.HasFocus() {
		setFocus(us.results)
		return
	}
	setFocus(us.input)
}
