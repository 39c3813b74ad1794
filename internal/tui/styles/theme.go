package styles

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/tokens"
)

// ThemeTokens defines the semantic color roles for the TUI.
type ThemeTokens struct {
	Background string
	Panel      string
	Text       string
	TextMuted  string
	Border     string
	Accent     string
	Focus      string
	Success    string
	Warning    string
	Error      string
	Info       string
}

// Theme bundles a palette with a name.
type Theme struct {
	Name   string
	Tokens ThemeTokens
}

// DefaultTheme is used when no animation palette is available.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Background: "#0B0F14",
		Panel:      "#121821",
		Text:       "#E6EDF3",
		TextMuted:  "#8B9AAE",
		Border:     "#223043",
		Accent:     "#5B8DEF",
		Focus:      "#7AA2F7",
		Success:    "#3FB950",
		Warning:    "#D29922",
		Error:      "#F85149",
		Info:       "#58A6FF",
	},
}

const (
	darkText  = "#202124"
	lightText = "#E8EAED"
)

// FromPalette derives TUI colors from an illustration palette so the player
// chrome follows the active scheme. Roles missing from p keep the default.
func FromPalette(name string, p palette.Palette) Theme {
	base := DefaultTheme.Tokens
	pick := func(token tokens.ColorToken, fallback string) string {
		color, err := p.Resolve(tokens.CSSVariable(token))
		if err != nil {
			return fallback
		}
		if c, err := colorful.Hex(opaque(color)); err == nil {
			return c.Hex()
		}
		return fallback
	}

	t := ThemeTokens{
		Background: pick(tokens.AppBase, base.Background),
		Panel:      pick(tokens.AppBaseShaded, base.Panel),
		Border:     pick(tokens.IlloSecondary, base.Border),
		Accent:     pick(tokens.IlloColor1, base.Accent),
		Focus:      pick(tokens.CardOnColor1, base.Focus),
		Success:    pick(tokens.IlloColor4, base.Success),
		Warning:    pick(tokens.IlloColor3, base.Warning),
		Error:      pick(tokens.IlloColor2, base.Error),
		Info:       pick(tokens.IlloColor1_1, base.Info),
	}
	t.Text, t.TextMuted = textFor(t.Background)
	return Theme{Name: name, Tokens: t}
}

// textFor picks a readable foreground for bg and a muted variant halfway
// toward the background.
func textFor(bg string) (text, muted string) {
	background, err := colorful.Hex(bg)
	if err != nil {
		return DefaultTheme.Tokens.Text, DefaultTheme.Tokens.TextMuted
	}
	text = lightText
	if l, _, _ := background.Lab(); l > 0.5 {
		text = darkText
	}
	fg, _ := colorful.Hex(text)
	return text, fg.BlendLab(background, 0.45).Clamped().Hex()
}

func opaque(color string) string {
	if len(color) == 9 && color[0] == '#' {
		return color[:7]
	}
	return color
}
