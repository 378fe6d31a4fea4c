package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Session       string
	User          string
	State         string
	Realtime      string
	Users         int
	Conversations int
	Messages      int
	StartedAt     time.Time
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
	now   func() time.Time
}

func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &SessionInfo{TextView: tv, theme: theme, now: time.Now}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}
	_, _ = fmt.Fprint(si, si.render(data))
}

func (si *SessionInfo) render(data *SessionData) string {
	fg := Tag(si.theme.FgColor)
	val := Tag(si.theme.CounterColor)

	uptime := "-"
	if !data.StartedAt.IsZero() {
		uptime = strings.TrimSpace(humanize.RelTime(data.StartedAt, si.now(), "", ""))
	}
	rows := [][2]string{
		{"Session:", data.Session},
		{"User:", data.User},
		{"Daemon:", data.State},
		{"Realtime:", data.Realtime},
		{"Users:", humanize.Comma(int64(data.Users))},
		{"Convs:", humanize.Comma(int64(data.Conversations))},
		{"Msgs:", humanize.Comma(int64(data.Messages))},
		{"Uptime:", uptime},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		v := r[1]
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "[%s::b]%-9s[-:-:-] [%s]%s[-]", fg, r[0], val, tview.Escape(v))
	}
	return b.String()
}
