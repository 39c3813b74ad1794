package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.Renderer.Autoplay)
	require.True(t, cfg.Renderer.Loop)
	require.False(t, cfg.Renderer.Dynamic)
	require.Equal(t, WorkerModeLocal, cfg.Worker.Mode)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "illo.yaml")
	content := `
renderer:
  source: assets/welcome.json
  dynamic: true
  loop: false
palette:
  scheme: dark
tokens:
  extra:
    - cros.sys.illo.color7
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "assets/welcome.json", cfg.Renderer.Source)
	require.True(t, cfg.Renderer.Dynamic)
	require.False(t, cfg.Renderer.Loop)
	require.True(t, cfg.Renderer.Autoplay)
	require.Equal(t, "dark", cfg.Palette.Scheme)
	require.Equal(t, []string{"cros.sys.illo.color7"}, cfg.Tokens.Extra)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ILLO_RENDERER_DYNAMIC", "true")
	t.Setenv("ILLO_PALETTE_SCHEME", "dark")

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Renderer.Dynamic)
	require.Equal(t, "dark", cfg.Palette.Scheme)
}

func TestValidateRejectsProcessWithoutCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Worker.Mode = WorkerModeProcess
	require.Error(t, cfg.Validate())

	cfg.Worker.Command = []string{"illo", "worker"}
	require.NoError(t, cfg.Validate())

	cfg.Worker.Mode = "remote"
	require.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
