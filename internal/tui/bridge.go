package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/net/html"
)

// screenMsg carries a freshly projected screen into the program.
type screenMsg struct {
	screen Screen
}

// Bridge hands renders from the event loop to the terminal program. Only
// the latest screen is kept; intermediate renders are skipped when the
// program is slower than the loop.
type Bridge struct {
	mu     sync.Mutex
	latest Screen
	notify chan struct{}
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{notify: make(chan struct{}, 1)}
}

// OnRender projects the mount point. It runs on the event loop and never
// blocks.
func (b *Bridge) OnRender(mount *html.Node) {
	screen := Project(mount)

	b.mu.Lock()
	b.latest = screen
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Latest returns the most recent screen.
func (b *Bridge) Latest() Screen {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// wait blocks until the next render and delivers it as a screenMsg.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		<-b.notify
		return screenMsg{screen: b.Latest()}
	}
}
