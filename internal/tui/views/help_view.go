package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/chatter/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpSection is a titled group of key bindings.
type HelpSection struct {
	Title string
	Hints []ui.MenuHint
}

// HelpView lists the key bindings of every view.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

func NewHelpView(theme *ui.Theme, sections []HelpSection) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{TextView: tv, theme: theme}
	hv.SetText(hv.render(sections))
	return hv
}

func (hv *HelpView) Name() string { return "Help" }

func (hv *HelpView) FocusTarget() tview.Primitive { return hv.TextView }

func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Close"}}
}

func (hv *HelpView) render(sections []HelpSection) string {
	kc := ui.Tag(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.Title)
		for _, h := range s.Hints {
			fmt.Fprintf(&b, "  [%s]%-12s[-] %s\n", kc, tview.Escape(h.Key), h.Description)
		}
	}
	b.WriteString(`
  [::b]Commands[-:-:-]

  :new        Start a conversation
  :refresh    Reload the open view
  :help       Show this help
  :quit / :q  Quit
`)
	return b.String()
}
