package ui

import "github.com/rivo/tview"

// Pages shows exactly one Component at a time, selected by key.
type Pages struct {
	*tview.Pages
	components map[string]Component
	current    string
	onChange   func(key string, c Component)
}

func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// SetOnChange sets a callback that fires when another page comes to front.
func (p *Pages) SetOnChange(fn func(key string, c Component)) {
	p.onChange = fn
}

// Add registers c under key, hidden.
func (p *Pages) Add(key string, c Component) {
	p.components[key] = c
	p.AddPage(key, c, true, false)
}

// Show brings key to front and reports whether the page changed.
func (p *Pages) Show(key string) bool {
	if key == p.current {
		return false
	}
	c, ok := p.components[key]
	if !ok {
		return false
	}
	p.SwitchToPage(key)
	p.current = key
	if p.onChange != nil {
		p.onChange(key, c)
	}
	return true
}

// Current returns the key of the page in front.
func (p *Pages) Current() string {
	return p.current
}

// Active returns the component in front, or nil before the first Show.
func (p *Pages) Active() Component {
	return p.components[p.current]
}
