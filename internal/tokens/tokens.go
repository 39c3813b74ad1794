// Package tokens defines the semantic color tokens that illustrations are
// annotated with.
package tokens

import (
	"sort"
	"strings"
)

// ColorToken is a dotted semantic color name, e.g. "cros.sys.illo.base".
type ColorToken string

// Illustration palette tokens.
const (
	IlloColor1    ColorToken = "cros.sys.illo.color1"
	IlloColor1_1  ColorToken = "cros.sys.illo.color1.1"
	IlloColor1_2  ColorToken = "cros.sys.illo.color1.2"
	IlloColor2    ColorToken = "cros.sys.illo.color2"
	IlloColor3    ColorToken = "cros.sys.illo.color3"
	IlloColor4    ColorToken = "cros.sys.illo.color4"
	IlloColor5    ColorToken = "cros.sys.illo.color5"
	IlloColor6    ColorToken = "cros.sys.illo.color6"
	IlloBase      ColorToken = "cros.sys.illo.base"
	IlloSecondary ColorToken = "cros.sys.illo.secondary"

	// Surface colors outside the illustration palette. Some animations paint
	// their background to match the surface they sit on.
	AppBase         ColorToken = "cros.sys.app_base"
	AppBaseShaded   ColorToken = "cros.sys.app_base_shaded"
	AppBaseElevated ColorToken = "cros.sys.app_base_elevated"

	CardColor1   ColorToken = "cros.sys.illo.card.color1"
	CardOnColor1 ColorToken = "cros.sys.illo.card.on_color1"
	CardColor2   ColorToken = "cros.sys.illo.card.color2"
	CardOnColor2 ColorToken = "cros.sys.illo.card.on_color2"
	CardColor3   ColorToken = "cros.sys.illo.card.color3"
	CardOnColor3 ColorToken = "cros.sys.illo.card.on_color3"
	CardColor4   ColorToken = "cros.sys.illo.card.color4"
	CardOnColor4 ColorToken = "cros.sys.illo.card.on_color4"
)

// Known lists every token an animation may reference. New tokens are added
// here when illustration palettes grow.
var Known = []ColorToken{
	IlloColor1, IlloColor1_1, IlloColor1_2,
	IlloColor2, IlloColor3, IlloColor4, IlloColor5, IlloColor6,
	IlloBase, IlloSecondary,
	AppBase, AppBaseShaded, AppBaseElevated,
	CardColor1, CardOnColor1,
	CardColor2, CardOnColor2,
	CardColor3, CardOnColor3,
	CardColor4, CardOnColor4,
}

// CSSVariable converts a token into its CSS custom property name:
// cros.sys.illo.base -> --cros-sys-illo-base.
func CSSVariable(token ColorToken) string {
	return "--" + strings.ReplaceAll(string(token), ".", "-")
}

// Set is a set of token names.
type Set map[ColorToken]struct{}

// NewSet builds a set from the given tokens.
func NewSet(list ...ColorToken) Set {
	s := make(Set, len(list))
	for _, t := range list {
		s.Add(t)
	}
	return s
}

// DefaultSet returns a fresh set holding Known.
func DefaultSet() Set {
	return NewSet(Known...)
}

// WithExtra returns DefaultSet extended by the given names. Blank names are
// ignored.
func WithExtra(extra []string) Set {
	s := DefaultSet()
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.Add(ColorToken(name))
	}
	return s
}

// Add inserts a token.
func (s Set) Add(t ColorToken) {
	s[t] = struct{}{}
}

// Has reports whether name is a member.
func (s Set) Has(name string) bool {
	_, ok := s[ColorToken(name)]
	return ok
}

// Names returns the members sorted.
func (s Set) Names() []ColorToken {
	out := make([]ColorToken, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
