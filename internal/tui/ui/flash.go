package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the latest transient notification. It is used from the
// UI loop only.
type FlashModel struct {
	current FlashMessage
	now     func() time.Time
}

func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo, 5*time.Second) }

func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn, 8*time.Second) }

func (f *FlashModel) Err(err error) { f.set(err.Error(), FlashErr, 10*time.Second) }

// Clear drops the current message.
func (f *FlashModel) Clear() { f.current = FlashMessage{} }

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	f.current = FlashMessage{Text: msg, Level: level, Expires: f.now().Add(d)}
}

// Message returns the current flash message, or nil if expired.
func (f *FlashModel) Message() *FlashMessage {
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update renders msg, or clears the bar for nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", Tag(color), tview.Escape(msg.Text))
}
