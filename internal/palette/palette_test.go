package palette

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/opencode-ai/illo/internal/tokens"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSchemesCoverKnownTokens(t *testing.T) {
	for name, p := range BuiltinSchemes() {
		for _, token := range tokens.Known {
			color, err := p.Resolve(tokens.CSSVariable(token))
			require.NoError(t, err, "%s: %s", name, token)
			require.Len(t, color, 9, "%s: %s", name, token)
		}
	}
}

func TestPaletteResolveUnknown(t *testing.T) {
	_, err := Palette{}.Resolve("--missing")
	require.ErrorIs(t, err, ErrUnknownVariable)
}

func TestPaletteSetNormalizesKeys(t *testing.T) {
	p := Palette{}
	p.Set("cros.sys.illo.base", " #112233 ")
	p.Set("--cros-sys-illo-color1", "#445566")

	require.Equal(t, "#112233", p["--cros-sys-illo-base"])
	require.Equal(t, "#445566", p["--cros-sys-illo-color1"])
	require.Equal(t, []string{"--cros-sys-illo-base", "--cros-sys-illo-color1"}, p.Variables())
}

func TestThemeSchemeSwitchNotifies(t *testing.T) {
	theme := DefaultTheme()

	var calls atomic.Int32
	sub := theme.Subscribe(func() { calls.Add(1) })
	require.Equal(t, 1, theme.Subscribers())

	light, err := theme.Resolve("--cros-sys-illo-base")
	require.NoError(t, err)

	require.NoError(t, theme.SetScheme(SchemeDark))
	require.Equal(t, int32(1), calls.Load())

	dark, err := theme.Resolve("--cros-sys-illo-base")
	require.NoError(t, err)
	require.NotEqual(t, light, dark)

	// Same scheme again is not a change.
	require.NoError(t, theme.SetScheme(SchemeDark))
	require.Equal(t, int32(1), calls.Load())

	require.ErrorIs(t, theme.SetScheme("sepia"), ErrUnknownScheme)

	sub.Unsubscribe()
	sub.Unsubscribe()
	require.Zero(t, theme.Subscribers())
	require.NoError(t, theme.SetScheme(SchemeLight))
	require.Equal(t, int32(1), calls.Load())
}

func TestNewThemeRequiresActiveScheme(t *testing.T) {
	_, err := NewTheme(BuiltinSchemes(), "sepia")
	require.ErrorIs(t, err, ErrUnknownScheme)
}

func TestThemeMerge(t *testing.T) {
	theme := DefaultTheme()
	var calls atomic.Int32
	theme.Subscribe(func() { calls.Add(1) })

	theme.Merge(map[string]Palette{
		SchemeLight: {"--cros-sys-illo-base": "#000000FF"},
		"sepia":     {"--cros-sys-illo-base": "#704214FF"},
	})
	require.Equal(t, int32(1), calls.Load())

	color, err := theme.Resolve("--cros-sys-illo-base")
	require.NoError(t, err)
	require.Equal(t, "#000000FF", color)

	// Other colors of the merged scheme survive.
	_, err = theme.Resolve("--cros-sys-illo-color1")
	require.NoError(t, err)

	require.Equal(t, []string{SchemeDark, SchemeLight, "sepia"}, theme.Schemes())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	content := `schemes:
  light:
    cros.sys.illo.base: "#FAFAFAFF"
  dark:
    --cros-sys-illo-base: "#101010"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	schemes, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "#FAFAFAFF", schemes[SchemeLight]["--cros-sys-illo-base"])
	require.Equal(t, "#101010", schemes[SchemeDark]["--cros-sys-illo-base"])
}

func TestLoadFileWithoutSchemes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors: {}\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestSwatches(t *testing.T) {
	out := Swatches(Palette{
		"--cros-sys-illo-base":   "#FFFFFFFF",
		"--cros-sys-illo-color1": "#1A73E8",
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "--cros-sys-illo-base")
	require.Contains(t, lines[0], "#FFFFFFFF")
	require.Contains(t, lines[1], "--cros-sys-illo-color1")
}

func TestTerminalHex(t *testing.T) {
	require.Equal(t, "#112233", terminalHex("#112233FF"))
	require.Equal(t, "#112233", terminalHex("112233"))
}
