package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/pantti/internal/element"
	"github.com/muurk/pantti/internal/view"
)

// Host receives the events produced by key presses.
type Host interface {
	Dispatch(targetID string, ev element.Event) bool
	Rescan()
}

// Model draws the projected screen and turns keys into element events.
type Model struct {
	bridge *Bridge
	host   Host

	screen Screen
	focus  int

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width  int
	height int
}

// NewModel creates the terminal model.
func NewModel(bridge *Bridge, host Host) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		bridge:  bridge,
		host:    host,
		screen:  bridge.Latest(),
		spinner: s,
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.wait(), m.spinner.Tick)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = ContentWidth(msg.Width)
		return m, nil

	case screenMsg:
		m.setScreen(msg.screen)
		return m, m.bridge.wait()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) setScreen(s Screen) {
	m.screen = s
	if n := len(s.Focusable()); m.focus >= n {
		m.focus = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focusable := m.screen.Focusable()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		if len(focusable) > 0 {
			m.focus = (m.focus + 1) % len(focusable)
		}

	case key.Matches(msg, m.keys.Prev):
		if len(focusable) > 0 {
			m.focus = (m.focus + len(focusable) - 1) % len(focusable)
		}

	case key.Matches(msg, m.keys.Press):
		if b, ok := m.focused(); ok && b.Kind == BlockButton {
			m.host.Dispatch(b.ID, element.Event{Type: "click"})
		}

	case key.Matches(msg, m.keys.Left):
		m.stepOption(-1)

	case key.Matches(msg, m.keys.Right):
		m.stepOption(1)

	case key.Matches(msg, m.keys.Scan):
		if _, ok := m.screen.Find(view.StartButtonID); ok {
			m.host.Dispatch(view.StartButtonID, element.Event{Type: "click"})
		} else if _, ok := m.screen.Find(view.StopButtonID); ok {
			m.host.Dispatch(view.StopButtonID, element.Event{Type: "click"})
		}

	case key.Matches(msg, m.keys.Rescan):
		m.host.Rescan()
	}

	return m, nil
}

func (m Model) focused() (Block, bool) {
	focusable := m.screen.Focusable()
	if m.focus < 0 || m.focus >= len(focusable) {
		return Block{}, false
	}
	return focusable[m.focus], true
}

// stepOption moves the selection of the focused select, or of the only
// select on screen when a button has focus.
func (m Model) stepOption(delta int) {
	b, ok := m.focused()
	if !ok || b.Kind != BlockSelect {
		b, ok = m.firstSelect()
	}
	if !ok || len(b.Options) == 0 {
		return
	}

	next := b.SelectedIndex() + delta
	if next < 0 || next >= len(b.Options) {
		return
	}
	m.host.Dispatch(b.ID, element.Event{Type: "change", Value: b.Options[next].Value})
}

func (m Model) firstSelect() (Block, bool) {
	for _, b := range m.screen.Blocks {
		if b.Kind == BlockSelect {
			return b, true
		}
	}
	return Block{}, false
}

// View implements tea.Model
func (m Model) View() string {
	width := ContentWidth(m.width)

	var sections []string
	sections = append(sections, RenderHeader())

	focused, _ := m.focused()
	for _, b := range m.screen.Blocks {
		if s := m.renderBlock(b, b.Focusable() && b.ID == focused.ID, width); s != "" {
			sections = append(sections, s)
		}
	}

	sections = append(sections, HelpStyle.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderBlock(b Block, focused bool, width int) string {
	switch b.Kind {
	case BlockParagraph:
		text := b.Text
		if b.Image != "" {
			text = strings.TrimSpace(text + " " + ImageStyle.Render("[sad cat]"))
		}
		return ParagraphStyle.Width(width).Render(text)

	case BlockPreformatted:
		return PreStyle.Render(strings.TrimRight(b.Text, "\n"))

	case BlockBreak:
		return ""

	case BlockButton:
		if focused {
			return FocusedButtonStyle.Render(b.Text)
		}
		return ButtonStyle.Render(b.Text)

	case BlockSelect:
		return renderSelect(b, focused)

	case BlockCapture:
		return fmt.Sprintf("%s Waiting for a barcode...", m.spinner.View())
	}
	return ""
}

func renderSelect(b Block, focused bool) string {
	label := b.Label
	if focused {
		label = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true).Render(label)
	} else {
		label = LabelStyle.Render(label)
	}

	lines := []string{label}
	selected := b.SelectedIndex()
	for i, o := range b.Options {
		if i == selected {
			lines = append(lines, SelectedOptionStyle.Render("● "+o.Label))
		} else {
			lines = append(lines, OptionStyle.Render("○ "+o.Label))
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the terminal program and blocks until the user quits.
func Run(bridge *Bridge, host Host, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewModel(bridge, host), opts...).Run()
	return err
}
