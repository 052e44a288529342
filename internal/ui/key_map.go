package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	toggle     key.Binding
	volumeDown key.Binding
	volumeUp   key.Binding
	masterDown key.Binding
	masterUp   key.Binding
	mute       key.Binding
	stopAll    key.Binding
	search     key.Binding
	downloads  key.Binding
	presets    key.Binding
	help       key.Binding
	enter      key.Binding
	back       key.Binding
	newPreset  key.Binding
	rename     key.Binding
	update     key.Binding
	remove     key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/stop")),
		volumeDown: key.NewBinding(key.WithKeys("h", "-", "left"), key.WithHelp("h/-", "volume down")),
		volumeUp:   key.NewBinding(key.WithKeys("l", "+", "=", "right"), key.WithHelp("l/+", "volume up")),
		masterDown: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "master down")),
		masterUp:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "master up")),
		mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		stopAll:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop all")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		downloads:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "downloads")),
		presets:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "presets")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		newPreset:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "save current")),
		rename:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		update:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "update")),
		remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.volumeDown, k.volumeUp, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle, k.volumeDown, k.volumeUp},
		{k.masterDown, k.masterUp, k.mute, k.stopAll},
		{k.search, k.downloads, k.presets, k.help, k.quit},
		{k.enter, k.newPreset, k.rename, k.update, k.remove, k.back},
	}
}
