package tokens

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSSVariable(t *testing.T) {
	require.Equal(t, "--cros-sys-illo-base", CSSVariable(IlloBase))
	require.Equal(t, "--cros-sys-illo-color1-1", CSSVariable(IlloColor1_1))
	require.Equal(t, "--cros-sys-app_base_shaded", CSSVariable(AppBaseShaded))
}

func TestDefaultSet(t *testing.T) {
	s := DefaultSet()
	require.Len(t, s, len(Known))
	require.True(t, s.Has("cros.sys.illo.base"))
	require.False(t, s.Has("cros.sys.illo.color7"))

	// Copies are independent.
	s.Add("cros.sys.illo.color7")
	require.False(t, DefaultSet().Has("cros.sys.illo.color7"))
}

func TestWithExtra(t *testing.T) {
	s := WithExtra([]string{" cros.sys.illo.color7 ", ""})
	require.True(t, s.Has("cros.sys.illo.color7"))
	require.Len(t, s, len(Known)+1)
}

func TestNamesSorted(t *testing.T) {
	s := NewSet(IlloSecondary, AppBase, IlloBase)
	require.Equal(t, []ColorToken{AppBase, IlloBase, IlloSecondary}, s.Names())
}
