// Package tui implements the interactive animation player.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/opencode-ai/illo/internal/models"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/opencode-ai/illo/internal/tui/styles"
	"github.com/opencode-ai/illo/internal/worker"
)

// Player is the part of the renderer controller the TUI drives.
type Player interface {
	Play() *renderer.Completion
	Pause() *renderer.Completion
	Stop() *renderer.Completion
	Resize(bounds worker.Size)
	Snapshot() renderer.Snapshot
}

// Options configures the player TUI.
type Options struct {
	Player Player
	Theme  *palette.Theme
	// Events is the controller event stream, usually a renderer.ChannelSink.
	Events <-chan renderer.Event
	Bounds worker.Size
}

// Run launches the player and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := newModel(ctx, opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.Theme != nil {
		sub := opts.Theme.Subscribe(func() { program.Send(schemeChangedMsg{}) })
		defer sub.Unsubscribe()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type model struct {
	ctx      context.Context
	player   Player
	theme    *palette.Theme
	events   <-chan renderer.Event
	styles   styles.Styles
	bounds   worker.Size
	snapshot renderer.Snapshot
	playing  bool
	log      []string
	status   string
	width    int
	height   int
}

const (
	minWidth     = 50
	minHeight    = 14
	logLines     = 8
	refreshEvery = 250 * time.Millisecond
	resizeStep   = 1.25
)

func newModel(ctx context.Context, opts Options) model {
	m := model{
		ctx:    ctx,
		player: opts.Player,
		theme:  opts.Theme,
		events: opts.Events,
		styles: styles.DefaultStyles(),
		bounds: opts.Bounds,
	}
	m.restyle()
	if m.player != nil {
		m.snapshot = m.player.Snapshot()
	}
	return m
}

func (m *model) restyle() {
	if m.theme == nil {
		return
	}
	scheme := m.theme.Scheme()
	if p, ok := m.theme.Palette(scheme); ok {
		m.styles = styles.BuildStyles(styles.FromPalette(scheme, p))
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForEvent(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.player != nil {
			m.snapshot = m.player.Snapshot()
		}
		return m, tickCmd()
	case EventMsg:
		m.record(msg.Event)
		return m, waitForEvent(m.events)
	case eventsClosedMsg:
		m.events = nil
	case schemeChangedMsg:
		m.restyle()
		m.status = "scheme: " + m.theme.Scheme()
	case ackMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s #%d not acknowledged: %v", msg.kind, msg.id, msg.err)
		} else {
			m.status = fmt.Sprintf("%s #%d acknowledged", msg.kind, msg.id)
		}
	case errMsg:
		m.status = msg.err.Error()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	}
	if m.player == nil {
		return m, nil
	}

	switch msg.String() {
	case " ", "space":
		if m.playing {
			return m, awaitCompletion(m.ctx, m.player.Pause())
		}
		return m, awaitCompletion(m.ctx, m.player.Play())
	case "p":
		return m, awaitCompletion(m.ctx, m.player.Play())
	case "s":
		return m, awaitCompletion(m.ctx, m.player.Stop())
	case "t":
		return m, m.toggleScheme()
	case "+", "=":
		m.bounds = scale(m.bounds, resizeStep)
		return m, resizeCmd(m.player, m.bounds)
	case "-":
		m.bounds = scale(m.bounds, 1/resizeStep)
		return m, resizeCmd(m.player, m.bounds)
	}
	return m, nil
}

// toggleScheme switches schemes off the update loop; subscribers are
// notified synchronously and one of them is this program.
func (m model) toggleScheme() tea.Cmd {
	theme := m.theme
	if theme == nil {
		return nil
	}
	return func() tea.Msg {
		next := palette.SchemeDark
		if theme.Scheme() == palette.SchemeDark {
			next = palette.SchemeLight
		}
		if err := theme.SetScheme(next); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *model) record(event renderer.Event) {
	switch event.Type {
	case models.EventTypePlaying:
		m.playing = true
	case models.EventTypePaused, models.EventTypeStopped, models.EventTypeSessionEnded:
		m.playing = false
	}

	line := fmt.Sprintf("%s %s", event.Timestamp.Local().Format("15:04:05"), event.Type)
	m.log = append(m.log, line)
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 && (m.width < minWidth || m.height < minHeight) {
		return joinLines(m.smallViewLines()) + "\n"
	}

	snap := m.snapshot
	lines := []string{
		m.styles.Title.Render("illo player"),
		"",
		fmt.Sprintf("%s %s", m.styles.Muted.Render("State   "), m.stateLabel(snap.State)),
		fmt.Sprintf("%s %s", m.styles.Muted.Render("Source  "), m.styles.Text.Render(snap.Source)),
		fmt.Sprintf("%s %s", m.styles.Muted.Render("Playback"), m.styles.Text.Render(m.playbackLabel())),
		fmt.Sprintf("%s %s", m.styles.Muted.Render("Draw    "), m.styles.Text.Render(fmt.Sprintf("%gx%g", snap.DrawSize.Width, snap.DrawSize.Height))),
		fmt.Sprintf("%s %s", m.styles.Muted.Render("Tokens  "), m.styles.Text.Render(fmt.Sprintf("%d", snap.Tokens))),
	}
	if m.theme != nil {
		lines = append(lines, fmt.Sprintf("%s %s", m.styles.Muted.Render("Scheme  "), m.styles.Accent.Render(m.theme.Scheme())))
	}
	if snap.QueuedControls > 0 || snap.Outstanding > 0 {
		lines = append(lines, m.styles.Info.Render(fmt.Sprintf("%d queued, %d awaiting ack", snap.QueuedControls, snap.Outstanding)))
	}

	lines = append(lines, "", m.styles.Focus.Render("Events"))
	if len(m.log) == 0 {
		lines = append(lines, m.styles.Muted.Render("  none yet"))
	}
	for _, line := range m.log {
		lines = append(lines, m.styles.Text.Render("  "+line))
	}

	if m.status != "" {
		lines = append(lines, "", m.styles.Warning.Render(m.status))
	}
	lines = append(lines, "", m.styles.Muted.Render("space play/pause | s stop | t scheme | +/- size | q quit"))

	return m.styles.Panel.Render(joinLines(lines)) + "\n"
}

func (m model) stateLabel(state renderer.State) string {
	label := strings.ReplaceAll(state.String(), "_", " ")
	switch state {
	case renderer.StateReady:
		return m.styles.StatusReady.Render(label)
	case renderer.StateConnecting, renderer.StateAwaitingLoad:
		return m.styles.StatusWaiting.Render(label)
	case renderer.StateTerminated:
		return m.styles.StatusEnded.Render(label)
	default:
		return m.styles.StatusIdle.Render(label)
	}
}

func (m model) playbackLabel() string {
	if m.playing {
		return "playing"
	}
	return "paused"
}

func (m model) smallViewLines() []string {
	message := fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)
	hint := fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)

	return []string{
		m.styles.Warning.Render(message),
		m.styles.Muted.Render(hint),
		m.styles.Muted.Render("Press q to quit."),
	}
}

func scale(size worker.Size, factor float64) worker.Size {
	w := size.Width * factor
	h := size.Height * factor
	if w < 1 || h < 1 {
		return size
	}
	return worker.Size{Width: float64(int(w + 0.5)), Height: float64(int(h + 0.5))}
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
