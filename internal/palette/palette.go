// Package palette resolves color tokens to concrete colors and reports
// color scheme changes.
package palette

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/opencode-ai/illo/internal/tokens"
)

// ErrUnknownVariable indicates a CSS variable has no color in the palette.
var ErrUnknownVariable = errors.New("unknown color variable")

// Resolver returns the active color for a CSS variable as a hex string.
type Resolver interface {
	Resolve(cssVar string) (string, error)
}

// Palette maps CSS variables (--cros-sys-illo-base) to hex colors.
type Palette map[string]string

// Resolve implements Resolver.
func (p Palette) Resolve(cssVar string) (string, error) {
	color, ok := p[cssVar]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, cssVar)
	}
	return color, nil
}

// Set assigns a color to a token or CSS variable name.
func (p Palette) Set(name, color string) {
	p[normalizeKey(name)] = strings.TrimSpace(color)
}

// Clone returns an independent copy.
func (p Palette) Clone() Palette {
	out := make(Palette, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Variables returns the palette keys sorted.
func (p Palette) Variables() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// normalizeKey accepts either a token (cros.sys.illo.base) or a CSS variable
// (--cros-sys-illo-base) and returns the CSS variable.
func normalizeKey(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		return name
	}
	return tokens.CSSVariable(tokens.ColorToken(name))
}
