// Package tui is the terminal host: a Bubble Tea program that shows the
// application's document and turns key presses into document events.
//
// The application never hands live nodes to the terminal. On every render
// the Bridge projects the mount point into a Screen, a plain list of
// Blocks (paragraphs, buttons, selects, the capture placeholder), and the
// Model draws the most recent Screen with lipgloss.
//
// # Keys
//
//	tab / down / j        next control
//	shift+tab / up / k    previous control
//	enter / space         press the focused button
//	left / right          change the focused select
//	s                     scan or stop, whichever is on screen
//	r                     look for capture devices again
//	q / ctrl+c            quit
//
// # Usage Example
//
//	bridge := tui.NewBridge()
//	a.OnRender(bridge.OnRender)
//	program := tea.NewProgram(tui.NewModel(bridge, a), tea.WithAltScreen())
//	_, err := program.Run()
package tui
