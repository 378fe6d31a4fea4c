package keys

import (
	"slices"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatter/internal/messenger"
	"github.com/matheus3301/chatter/internal/tui/ui"
)

// Action represents a keybinding action.
type Action struct {
	Key  tcell.Key
	Rune rune
	// Label is the key as shown in the menu, e.g. "Ctrl-N".
	Label       string
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings per messenger view, in registration order.
type Registry struct {
	global []*Action
	views  map[messenger.View][]*Action
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[messenger.View][]*Action)}
}

// AddGlobal registers a binding active in every view.
func (r *Registry) AddGlobal(action *Action) {
	r.global = append(r.global, action)
}

// AddView registers a binding for one view. View bindings win over global ones.
func (r *Registry) AddView(view messenger.View, action *Action) {
	r.views[view] = append(r.views[view], action)
}

// Hints returns the visible bindings of view followed by the global ones.
func (r *Registry) Hints(view messenger.View) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, a := range slices.Concat(r.views[view], r.global) {
		if a.Visible {
			hints = append(hints, ui.MenuHint{Key: a.Label, Description: a.Description})
		}
	}
	return hints
}

// GlobalHints returns every global binding, visible or not.
func (r *Registry) GlobalHints() []ui.MenuHint {
	hints := make([]ui.MenuHint, 0, len(r.global))
	for _, a := range r.global {
		hints = append(hints, ui.MenuHint{Key: a.Label, Description: a.Description})
	}
	return hints
}

// HandleEvent runs the first binding of view, then of the global scope, that
// matches ev and reports whether one did. While typing, plain rune bindings
// are skipped so the keys reach the input.
func (r *Registry) HandleEvent(view messenger.View, ev *tcell.EventKey, typing bool) bool {
	for _, scope := range [][]*Action{r.views[view], r.global} {
		for _, a := range scope {
			if typing && a.Key == tcell.KeyRune {
				continue
			}
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
