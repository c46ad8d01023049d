package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	back       key.Binding
	play       key.Binding
	next       key.Binding
	prev       key.Binding
	seekBack   key.Binding
	seekFwd    key.Binding
	volUp      key.Binding
	volDown    key.Binding
	shuffle    key.Binding
	repeat     key.Binding
	like       key.Binding
	search     key.Binding
	author     key.Binding
	genre      key.Binding
	sort       key.Binding
	clear      key.Binding
	favorites  key.Binding
	selections key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		play:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		seekBack:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "-10s")),
		seekFwd:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "+10s")),
		volUp:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		like:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		author:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "author")),
		genre:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		sort:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
		clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		favorites:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorites")),
		selections: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "selections")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.play, k.next, k.like, k.search, k.selections, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.play, k.next, k.prev, k.seekBack, k.seekFwd},
		{k.volUp, k.volDown, k.shuffle, k.repeat, k.like},
		{k.search, k.author, k.genre, k.sort, k.clear},
		{k.favorites, k.selections, k.quit},
	}
}
