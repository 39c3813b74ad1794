package palette

import "github.com/opencode-ai/illo/internal/tokens"

// Scheme names.
const (
	SchemeLight = "light"
	SchemeDark  = "dark"
)

func fromTokens(colors map[tokens.ColorToken]string) Palette {
	p := make(Palette, len(colors))
	for token, color := range colors {
		p[tokens.CSSVariable(token)] = color
	}
	return p
}

// LightPalette is the baseline light scheme.
var LightPalette = fromTokens(map[tokens.ColorToken]string{
	tokens.IlloColor1:    "#1A73E8FF",
	tokens.IlloColor1_1:  "#AECBFAFF",
	tokens.IlloColor1_2:  "#D2E3FCFF",
	tokens.IlloColor2:    "#EA4335FF",
	tokens.IlloColor3:    "#FBBC04FF",
	tokens.IlloColor4:    "#34A853FF",
	tokens.IlloColor5:    "#FAD2CFFF",
	tokens.IlloColor6:    "#A142F4FF",
	tokens.IlloBase:      "#FFFFFFFF",
	tokens.IlloSecondary: "#E8EAEDFF",

	tokens.AppBase:         "#FFFFFFFF",
	tokens.AppBaseShaded:   "#F1F3F4FF",
	tokens.AppBaseElevated: "#FFFFFFFF",

	tokens.CardColor1:   "#E8F0FEFF",
	tokens.CardOnColor1: "#1967D2FF",
	tokens.CardColor2:   "#FCE8E6FF",
	tokens.CardOnColor2: "#C5221FFF",
	tokens.CardColor3:   "#FEF7E0FF",
	tokens.CardOnColor3: "#E37400FF",
	tokens.CardColor4:   "#E6F4EAFF",
	tokens.CardOnColor4: "#137333FF",
})

// DarkPalette is the baseline dark scheme.
var DarkPalette = fromTokens(map[tokens.ColorToken]string{
	tokens.IlloColor1:    "#8AB4F8FF",
	tokens.IlloColor1_1:  "#4C6FA8FF",
	tokens.IlloColor1_2:  "#394457FF",
	tokens.IlloColor2:    "#F28B82FF",
	tokens.IlloColor3:    "#FDD663FF",
	tokens.IlloColor4:    "#81C995FF",
	tokens.IlloColor5:    "#5C3B3AFF",
	tokens.IlloColor6:    "#D7AEFBFF",
	tokens.IlloBase:      "#202124FF",
	tokens.IlloSecondary: "#3C4043FF",

	tokens.AppBase:         "#202124FF",
	tokens.AppBaseShaded:   "#17181AFF",
	tokens.AppBaseElevated: "#2D2E30FF",

	tokens.CardColor1:   "#2B3A55FF",
	tokens.CardOnColor1: "#AECBFAFF",
	tokens.CardColor2:   "#4A2C2AFF",
	tokens.CardOnColor2: "#F6AEA9FF",
	tokens.CardColor3:   "#4B3F1FFF",
	tokens.CardOnColor3: "#FDE293FF",
	tokens.CardColor4:   "#24392BFF",
	tokens.CardOnColor4: "#A8DAB5FF",
})

// BuiltinSchemes returns fresh copies of the built-in schemes.
func BuiltinSchemes() map[string]Palette {
	return map[string]Palette{
		SchemeLight: LightPalette.Clone(),
		SchemeDark:  DarkPalette.Clone(),
	}
}
