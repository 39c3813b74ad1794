package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opencode-ai/illo/internal/config"
	"github.com/opencode-ai/illo/internal/lottie"
	"github.com/opencode-ai/illo/internal/models"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/opencode-ai/illo/internal/source"
	"github.com/opencode-ai/illo/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexFixture = `{
  "fr": 30, "ip": 0, "op": 30,
  "layers": [{"shapes": [
    {"ty": "fl", "nm": "cros.sys.illo.base", "c": {"a": 0, "k": [0, 0, 0, 1]}},
    {"ty": "st", "nm": "cros.sys.illo.base", "c": {"a": 0, "k": [0, 0, 0, 1]}},
    {"ty": "gf", "nm": "cros.sys.illo.color1", "g": {"p": 1, "k": {"a": 0, "k": [0, 0, 0, 0]}}}
  ]}]
}`

func TestFormatState(t *testing.T) {
	tests := []struct {
		state renderer.State
		want  string
	}{
		{renderer.StateReady, "OK ready"},
		{renderer.StateAwaitingLoad, "WAIT awaiting load"},
		{renderer.StateConnecting, "WAIT connecting"},
		{renderer.StateIdle, "IDLE idle"},
		{renderer.StateTerminated, "END terminated"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, formatState(tt.state, false))
		})
	}
}

func TestPreflightErrorFormatting(t *testing.T) {
	err := &PreflightError{Message: "no journal", Hint: "set journal.path", NextStep: "illo events"}
	lines := strings.Split(err.Error(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "no journal", lines[0])
	assert.Contains(t, lines[1], "hint: set journal.path")
	assert.Contains(t, lines[2], "illo events")

	bare := &PreflightError{Message: "boom"}
	assert.Equal(t, "boom", bare.Error())
}

func TestWriteOutputJSONL(t *testing.T) {
	orig := jsonlOutput
	defer func() { jsonlOutput = orig }()

	jsonlOutput = true
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, []any{map[string]int{"a": 1}, map[string]int{"b": 2}}))
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", buf.String())

	jsonlOutput = false
	buf.Reset()
	require.NoError(t, WriteOutput(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestBuildIndexResult(t *testing.T) {
	asset := source.NewAsset("welcome.json", []byte(indexFixture))
	doc, err := lottie.Parse(asset.Data)
	require.NoError(t, err)

	result := buildIndexResult(asset, lottie.BuildIndex(doc, tokenSet(config.DefaultConfig())))
	assert.Equal(t, "welcome.json", result.Source)
	assert.Equal(t, asset.Digest, result.Digest)
	assert.Equal(t, 2, result.Shapes)
	assert.Equal(t, 1, result.Gradients)

	byToken := map[string]IndexEntry{}
	for _, entry := range result.Tokens {
		byToken[entry.Token] = entry
	}
	require.Len(t, byToken, 2)
	assert.Equal(t, 2, byToken["cros.sys.illo.base"].Shapes)
	assert.Equal(t, "--cros-sys-illo-base", byToken["cros.sys.illo.base"].Variable)
	assert.Equal(t, 1, byToken["cros.sys.illo.color1"].Gradients)
}

func TestBuildIndexResultEmpty(t *testing.T) {
	asset := source.NewAsset("plain.json", []byte(`{"layers": []}`))
	doc, err := lottie.Parse(asset.Data)
	require.NoError(t, err)

	result := buildIndexResult(asset, lottie.BuildIndex(doc, tokenSet(config.DefaultConfig())))
	assert.NotNil(t, result.Tokens)
	assert.Empty(t, result.Tokens)
}

func TestLoadThemeSchemes(t *testing.T) {
	cfg := config.DefaultConfig()

	theme, err := loadTheme(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, palette.SchemeLight, theme.Scheme())

	theme, err = loadTheme(cfg, "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme.Scheme())

	_, err = loadTheme(cfg, "sepia")
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
	assert.Contains(t, preflight.Hint, "dark")
}

func TestLoadThemeBadPaletteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("light: [not, a, map"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Palette.File = path
	_, err := loadTheme(cfg, "")
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)
}

func TestWorkerFactorySelection(t *testing.T) {
	cfg := config.DefaultConfig()

	factory, mode, err := workerFactory(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, config.WorkerModeLocal, mode)
	assert.NotNil(t, factory)

	_, mode, err = workerFactory(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, config.WorkerModeProcess, mode)

	cfg.Worker.Mode = config.WorkerModeProcess
	cfg.Worker.Command = []string{"illo-worker"}
	_, mode, err = workerFactory(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, config.WorkerModeProcess, mode)
}

func TestOpenJournal(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()

	database, err := openJournal(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, database)

	_, err = requireJournal(ctx, cfg)
	var preflight *PreflightError
	require.ErrorAs(t, err, &preflight)

	cfg.Journal.Path = filepath.Join(t.TempDir(), "nested", "journal.db")
	database, err = requireJournal(ctx, cfg)
	require.NoError(t, err)
	defer database.Close()
	assert.FileExists(t, cfg.Journal.Path)
}

func TestPrintSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &printSink{out: &buf}

	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	require.NoError(t, sink.Emit(context.Background(), renderer.Event{
		Type:      models.EventTypeResized,
		Timestamp: at,
		Data:      models.ResizedPayload{Width: 640, Height: 480},
	}))
	require.NoError(t, sink.Emit(context.Background(), renderer.Event{
		Type:      models.EventTypeInitialized,
		Timestamp: at,
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "10:30:00.000"))
	assert.Contains(t, lines[0], `{"width":640,"height":480}`)
	assert.Equal(t, "10:30:00.000  cros-lottie-initialized", strings.TrimSpace(lines[1]))
	assert.NoError(t, sink.Close())
}

func TestWriteSnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, renderer.Snapshot{
		State:       renderer.StateReady,
		Source:      "welcome.json",
		Loaded:      true,
		Transferred: true,
		Tokens:      3,
		DrawSize:    worker.Size{Width: 640, Height: 480},
	}))
	out := buf.String()
	assert.Contains(t, out, "OK ready")
	assert.Contains(t, out, "welcome.json")
	assert.Contains(t, out, "640x480")
}

func TestPlayContext(t *testing.T) {
	ctx, cancel := playContext(context.Background(), 10*time.Millisecond)
	defer cancel()
	<-ctx.Done()
	assert.True(t, errors.Is(ctx.Err(), context.DeadlineExceeded))

	ctx, cancel = playContext(context.Background(), 0)
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestExportPalettesRoundTrip(t *testing.T) {
	theme := palette.DefaultTheme()
	data, err := exportPalettes(theme)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schemes:")

	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	schemes, err := palette.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, schemes, 2)

	light, _ := theme.Palette(palette.SchemeLight)
	got, err := schemes[palette.SchemeLight].Resolve("--cros-sys-illo-base")
	require.NoError(t, err)
	want, _ := light.Resolve("--cros-sys-illo-base")
	assert.Equal(t, want, got)
}
