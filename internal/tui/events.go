package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/opencode-ai/illo/internal/worker"
)

// EventMsg wraps a controller event for the TUI.
type EventMsg struct {
	Event renderer.Event
}

// eventsClosedMsg reports that the event channel was closed.
type eventsClosedMsg struct{}

// schemeChangedMsg reports a palette scheme switch.
type schemeChangedMsg struct{}

// ackMsg reports the outcome of a play, pause or stop request.
type ackMsg struct {
	kind string
	id   uint64
	err  error
}

// errMsg carries a failed command.
type errMsg struct {
	err error
}

// waitForEvent returns a command that delivers the next controller event.
func waitForEvent(events <-chan renderer.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg{Event: event}
	}
}

// awaitCompletion waits for the worker to acknowledge a request.
func awaitCompletion(ctx context.Context, c *renderer.Completion) tea.Cmd {
	return func() tea.Msg {
		_, err := c.Wait(ctx)
		return ackMsg{kind: c.Kind(), id: c.ID(), err: err}
	}
}

// resizeCmd posts new bounds to the player.
func resizeCmd(player Player, bounds worker.Size) tea.Cmd {
	return func() tea.Msg {
		player.Resize(bounds)
		return nil
	}
}
