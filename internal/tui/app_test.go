package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/opencode-ai/illo/internal/models"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/opencode-ai/illo/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	mu      sync.Mutex
	calls   []string
	resized []worker.Size
	snap    renderer.Snapshot
}

func (p *fakePlayer) record(call string) *renderer.Completion {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return &renderer.Completion{}
}

func (p *fakePlayer) Play() *renderer.Completion  { return p.record("play") }
func (p *fakePlayer) Pause() *renderer.Completion { return p.record("pause") }
func (p *fakePlayer) Stop() *renderer.Completion  { return p.record("stop") }

func (p *fakePlayer) Resize(bounds worker.Size) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resized = append(p.resized, bounds)
}

func (p *fakePlayer) Snapshot() renderer.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newTestModel(player *fakePlayer, theme *palette.Theme) model {
	return newModel(context.Background(), Options{
		Player: player,
		Theme:  theme,
		Bounds: worker.Size{Width: 100, Height: 80},
	})
}

func press(t *testing.T, m model, key string) (model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func event(eventType models.EventType) EventMsg {
	return EventMsg{Event: renderer.Event{Type: eventType, Timestamp: time.Now()}}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	player := &fakePlayer{}
	m := newTestModel(player, nil)

	m, cmd := press(t, m, " ")
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"play"}, player.Calls())

	next, _ := m.Update(event(models.EventTypePlaying))
	m = next.(model)
	assert.True(t, m.playing)

	m, _ = press(t, m, " ")
	assert.Equal(t, []string{"play", "pause"}, player.Calls())

	next, _ = m.Update(event(models.EventTypeStopped))
	m = next.(model)
	assert.False(t, m.playing)
}

func TestStopKey(t *testing.T) {
	player := &fakePlayer{}
	m := newTestModel(player, nil)

	_, cmd := press(t, m, "s")
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"stop"}, player.Calls())
}

func TestResizeKeys(t *testing.T) {
	player := &fakePlayer{}
	m := newTestModel(player, nil)

	m, cmd := press(t, m, "+")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, worker.Size{Width: 125, Height: 100}, m.bounds)

	m, cmd = press(t, m, "-")
	cmd()
	assert.Equal(t, worker.Size{Width: 100, Height: 80}, m.bounds)

	require.Len(t, player.resized, 2)
	assert.Equal(t, worker.Size{Width: 125, Height: 100}, player.resized[0])
}

func TestSchemeToggle(t *testing.T) {
	theme := palette.DefaultTheme()
	m := newTestModel(&fakePlayer{}, theme)
	lightText := m.styles.Theme.Tokens.Text

	_, cmd := press(t, m, "t")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, palette.SchemeDark, theme.Scheme())

	next, _ := m.Update(schemeChangedMsg{})
	m = next.(model)
	assert.Equal(t, "scheme: dark", m.status)
	assert.NotEqual(t, lightText, m.styles.Theme.Tokens.Text)
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		_, cmd := press(t, newTestModel(&fakePlayer{}, nil), key)
		require.NotNil(t, cmd, key)
		assert.IsType(t, tea.QuitMsg{}, cmd(), key)
	}
}

func TestEventLogIsBounded(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	for i := 0; i < logLines+3; i++ {
		next, _ := m.Update(event(models.EventTypeResized))
		m = next.(model)
	}
	assert.Len(t, m.log, logLines)
}

func TestEventsDelivered(t *testing.T) {
	events := make(chan renderer.Event, 1)
	events <- renderer.Event{Type: models.EventTypeInitialized}
	cmd := waitForEvent(events)
	require.NotNil(t, cmd)

	msg, ok := cmd().(EventMsg)
	require.True(t, ok)
	assert.Equal(t, models.EventTypeInitialized, msg.Event.Type)

	close(events)
	assert.IsType(t, eventsClosedMsg{}, cmd())
	assert.Nil(t, waitForEvent(nil))
}

func TestAckStatus(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	next, _ := m.Update(ackMsg{kind: worker.AckPlaying, id: 3})
	assert.Equal(t, "playing #3 acknowledged", next.(model).status)

	next, _ = m.Update(ackMsg{kind: worker.AckStopped, id: 4, err: context.Canceled})
	assert.Contains(t, next.(model).status, "not acknowledged")
}

func TestViewShowsSnapshot(t *testing.T) {
	player := &fakePlayer{snap: renderer.Snapshot{
		State:    renderer.StateReady,
		Source:   "welcome.json",
		Tokens:   4,
		DrawSize: worker.Size{Width: 200, Height: 160},
	}}
	m := newTestModel(player, palette.DefaultTheme())

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(model)
	next, _ = m.Update(event(models.EventTypeInitialized))
	view := next.(model).View()

	assert.Contains(t, view, "ready")
	assert.Contains(t, view, "welcome.json")
	assert.Contains(t, view, "200x160")
	assert.Contains(t, view, "cros-lottie-initialized")
	assert.Contains(t, view, "light")
}

func TestSmallTerminal(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	assert.Contains(t, next.(model).View(), "Terminal too small (20x5)")
}
