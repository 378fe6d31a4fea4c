// Package tui is the terminal front end of chatter: a k9s-style shell around
// one messenger.Messenger.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/client"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/tui/keys"
	"github.com/matheus3301/chatter/internal/tui/ui"
	"github.com/matheus3301/chatter/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	statusInterval = 5 * time.Second
	helpPage       = "help"
	headerHeight   = 8
)

// Options configures an App.
type Options struct {
	Session   string
	UserName  string
	Messenger messenger.Config
	Logger    *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	client   *client.Client
	msgr     *messenger.Messenger
	registry *keys.Registry
	logger   *zap.Logger
	opts     Options

	layout   *tview.Flex
	pages    *ui.Pages
	info     *ui.SessionInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar

	list   *views.ConversationList
	search *views.UserSearch
	detail *views.ConversationDetail
	help   *views.HelpView

	session    ui.SessionData
	overfilled bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp builds the shell for the user c is connected as.
func NewApp(c *client.Client, opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		client:   c,
		registry: keys.NewRegistry(),
		opts:     opts,
		pages:    ui.NewPages(),
		info:     ui.NewSessionInfo(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		prompt:   ui.NewPrompt(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		list:     views.NewConversationList(theme),
		search:   views.NewUserSearch(theme),
		detail:   views.NewConversationDetail(theme, c.UserID()),
		ctx:      ctx,
		cancel:   cancel,
	}
	a.session = ui.SessionData{
		Session:  opts.Session,
		User:     opts.UserName,
		State:    "CONNECTING",
		Realtime: opts.Messenger.Channel,
	}
	a.logger = opts.Logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, newFlashCore(zapcore.WarnLevel, a.showLog))
	}))

	sched := messenger.NewQueueScheduler(ctx, func(f func()) { a.app.QueueUpdateDraw(f) })
	a.msgr = messenger.New(opts.Messenger, c, c, sched, a.logger.Named("messenger"))
	a.msgr.OnChange(a.render)
	a.msgr.OnConversationLoaded(func(string) { a.detail.ScrollToLatest() })

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	r := a.registry
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: '?', Label: "?", Description: "Help", Visible: true,
		Handler: a.showHelp})
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: ':', Label: ":", Description: "Command", Visible: true,
		Handler: func() { a.activatePrompt(ui.PromptCommand) }})
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'q', Label: "q", Description: "Quit", Visible: true,
		Handler: a.Stop})
	r.AddGlobal(&keys.Action{Key: tcell.KeyCtrlC, Label: "Ctrl-C", Description: "Quit",
		Handler: a.Stop})

	newConversation := func() { a.msgr.GoToUserSearch() }
	r.AddView(messenger.Home, &keys.Action{Key: tcell.KeyCtrlN, Label: "Ctrl-N", Description: "New", Visible: true,
		Handler: newConversation})
	r.AddView(messenger.Home, &keys.Action{Key: tcell.KeyRune, Rune: 'n', Label: "n", Description: "New",
		Handler: newConversation})
	r.AddView(messenger.Home, &keys.Action{Key: tcell.KeyRune, Rune: '/', Label: "/", Description: "Filter",
		Handler: func() { a.activatePrompt(ui.PromptFilter) }})
	r.AddView(messenger.Home, &keys.Action{Key: tcell.KeyCtrlR, Label: "Ctrl-R", Description: "Reload", Visible: true,
		Handler: a.msgr.RefreshConversations})
	r.AddView(messenger.Home, &keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Clear filter",
		Handler: func() { a.list.SetFilter("") }})
	for n := 1; n <= 9; n++ {
		r.AddView(messenger.Home, &keys.Action{Key: tcell.KeyRune, Rune: rune('0' + n), Label: strconv.Itoa(n),
			Handler: func() { a.openNth(n) }})
	}

	r.AddView(messenger.UserSearch, &keys.Action{Key: tcell.KeyCtrlN, Label: "Ctrl-N", Description: "Start",
		Handler: a.startConversation})
	r.AddView(messenger.UserSearch, &keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Cancel",
		Handler: a.msgr.GoHome})
	r.AddView(messenger.UserSearch, &keys.Action{Key: tcell.KeyTab, Label: "Tab", Description: "Switch focus",
		Handler: func() { a.search.ToggleFocus(func(p tview.Primitive) { a.app.SetFocus(p) }) }})

	r.AddView(messenger.ConversationDetail, &keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Back",
		Handler: a.msgr.GoBack})
	r.AddView(messenger.ConversationDetail, &keys.Action{Key: tcell.KeyCtrlR, Label: "Ctrl-R", Description: "Reload",
		Handler: a.msgr.RefreshThread})
}

func (a *App) setupCallbacks() {
	a.list.SetOnOpen(a.msgr.OpenConversation)
	a.search.SetOnType(a.msgr.TypeKeyword)
	a.search.SetOnToggle(func(u messenger.User, selected bool) {
		if selected {
			a.msgr.AddRecipient(u.ID)
		} else {
			a.msgr.RemoveRecipient(u.ID)
		}
	})
	a.detail.SetOnDraft(a.msgr.SetDraft)
	a.detail.SetOnKey(a.msgr.KeyDown)

	a.pages.SetOnChange(func(_ string, c ui.Component) {
		a.app.SetFocus(c.FocusTarget())
		a.refreshChrome()
	})

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.list.SetFilter(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		if mode == ui.PromptCommand {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.list.SetFilter("")
		}
		a.closePrompt()
	})
}

func (a *App) setupLayout() {
	a.help = views.NewHelpView(a.theme, []views.HelpSection{
		{Title: "Global", Hints: a.registry.GlobalHints()},
		{Title: "Conversations", Hints: slices.Concat(a.list.Hints(), []ui.MenuHint{
			{Key: "n, Ctrl-N", Description: "New conversation"},
			{Key: "Ctrl-R", Description: "Reload"},
			{Key: "Esc", Description: "Clear filter"},
		})},
		{Title: "New conversation", Hints: a.search.Hints()},
		{Title: "Conversation", Hints: a.detail.Hints()},
	})

	a.pages.Add(messenger.Home.String(), a.list)
	a.pages.Add(messenger.UserSearch.String(), a.search)
	a.pages.Add(messenger.ConversationDetail.String(), a.detail)
	a.pages.Add(helpPage, a.help)

	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.info, 0, 1, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 16, 0, false)

	a.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerHeight, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.layout.SetBackgroundColor(a.theme.BgColor)

	a.app.SetRoot(a.layout, true)
	a.app.SetInputCapture(a.handleKey)
	a.info.Update(&a.session)
	a.pages.Show(messenger.Home.String())
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	focus := a.app.GetFocus()
	if focus == tview.Primitive(a.prompt) {
		return ev
	}
	if a.pages.Current() == helpPage {
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyRune && (ev.Rune() == '?' || ev.Rune() == 'q'):
			a.closeHelp()
			return nil
		case ev.Key() == tcell.KeyCtrlC:
			a.Stop()
			return nil
		}
		return ev
	}

	var typing bool
	switch focus.(type) {
	case *tview.InputField, *tview.TextArea:
		typing = true
	}
	if a.registry.HandleEvent(a.msgr.View(), ev, typing) {
		return nil
	}
	return ev
}

// render is the messenger's change listener; it runs on the UI loop.
func (a *App) render() {
	vm := a.msgr.Snapshot()
	a.list.Update(vm.Conversations)
	a.search.Update(vm)
	a.detail.Update(vm)

	if vm.Overfilled && !a.overfilled {
		a.flash.Warn(fmt.Sprintf("A conversation has at most %d recipients", messenger.MaxRecipients))
	}
	a.overfilled = vm.Overfilled

	if a.pages.Current() != helpPage && !a.pages.Show(vm.View.String()) {
		a.refreshChrome()
	}
	a.flashBar.Update(a.flash.Message())
}

func (a *App) refreshChrome() {
	view := a.msgr.View()
	trail := []string{a.list.Name()}
	switch view {
	case messenger.UserSearch:
		trail = append(trail, a.search.Name())
	case messenger.ConversationDetail:
		trail = append(trail, a.detail.Name())
	}

	var hints []ui.MenuHint
	if a.pages.Current() == helpPage {
		trail = append(trail, a.help.Name())
		hints = a.help.Hints()
	} else if c := a.pages.Active(); c != nil {
		hints = slices.Concat(c.Hints(), a.registry.Hints(view))
	}
	a.crumbs.Update(trail...)
	a.menu.Update(hints)
}

func (a *App) showHelp() {
	a.pages.Show(helpPage)
}

func (a *App) closeHelp() {
	a.pages.Show(a.msgr.View().String())
}

func (a *App) activatePrompt(mode ui.PromptMode) {
	if mode == ui.PromptFilter && a.msgr.View() != messenger.Home {
		return
	}
	a.prompt.Activate(mode)
	if mode == ui.PromptFilter {
		a.prompt.SetText(a.list.Filter())
	}
	a.layout.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.layout.ResizeItem(a.prompt, 0, 0)
	if c := a.pages.Active(); c != nil {
		a.app.SetFocus(c.FocusTarget())
	}
}

func (a *App) openNth(n int) {
	if id := a.list.IDByIndex(n); id != "" {
		a.msgr.OpenConversation(id)
	}
}

func (a *App) startConversation() {
	if !a.msgr.HasRecipients() {
		a.flash.Warn("Pick at least one recipient first")
		a.flashBar.Update(a.flash.Message())
		return
	}
	a.msgr.StartConversation()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.showHelp()
	case "new":
		a.msgr.GoToUserSearch()
	case "r", "refresh":
		if a.msgr.View() == messenger.ConversationDetail {
			a.msgr.RefreshThread()
		} else {
			a.msgr.RefreshConversations()
		}
	case "o", "open":
		a.openByQuery(cmd.Args)
	default:
		a.flash.Warn(fmt.Sprintf("Unknown command %q", cmd.Name))
	}
	a.flashBar.Update(a.flash.Message())
}

// openByQuery opens the Nth listed conversation, or the first one whose
// recipients contain query.
func (a *App) openByQuery(query string) {
	if n, err := strconv.Atoi(query); err == nil {
		a.openNth(n)
		return
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, c := range a.msgr.Conversations() {
		if needle != "" && strings.Contains(strings.ToLower(c.FormattedRecipientNames), needle) {
			a.msgr.OpenConversation(c.ID)
			return
		}
	}
	a.flash.Warn(fmt.Sprintf("No conversation matches %q", query))
}

// showLog puts warnings and errors logged by the messenger in the flash bar.
// It may be called on or off the UI loop.
func (a *App) showLog(level zapcore.Level, msg string) {
	go a.app.QueueUpdateDraw(func() {
		if level >= zapcore.ErrorLevel {
			a.flash.Err(errors.New(msg))
		} else {
			a.flash.Warn(msg)
		}
		a.flashBar.Update(a.flash.Message())
	})
}

// Run starts the messenger and blocks until the TUI exits.
func (a *App) Run() error {
	a.app.QueueUpdateDraw(func() {
		a.msgr.Start()
		a.render()
	})
	go a.statusLoop()

	err := a.app.Run()
	a.cancel()
	a.msgr.Close()
	return err
}

func (a *App) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		a.refreshStatus()
		select {
		case <-ticker.C:
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) refreshStatus() {
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
	defer cancel()
	st, err := a.client.Status(ctx)
	if a.ctx.Err() != nil {
		return
	}
	a.app.QueueUpdateDraw(func() {
		if err != nil {
			a.session.State = "UNREACHABLE"
		} else {
			a.session.State = st.State
			a.session.Users = int(st.Users)
			a.session.Conversations = int(st.Conversations)
			a.session.Messages = int(st.Messages)
			a.session.StartedAt = time.Now().Add(-time.Duration(st.UptimeMs) * time.Millisecond)
			a.session.Realtime = fmt.Sprintf("%s (%d subscribers)", a.opts.Messenger.Channel, st.Subscribers)
		}
		a.info.Update(&a.session)
		a.flashBar.Update(a.flash.Message())
	})
}

// Stop ends the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
