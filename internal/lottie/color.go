package lottie

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor indicates a resolved color is not #RRGGBB or #RRGGBBAA.
var ErrInvalidColor = errors.New("invalid hex color")

// RGBA is a color with channels normalized to [0, 1], the representation
// Lottie uses for "c.k" arrays and gradient stops.
type RGBA struct {
	R, G, B, A float64
}

// Array returns the color as a Lottie [r, g, b, a] array.
func (c RGBA) Array() []any {
	return []any{c.R, c.G, c.B, c.A}
}

// ParseHexColor converts "#RRGGBBAA" or "#RRGGBB" into RGBA. A six digit
// color is fully opaque.
func ParseHexColor(value string) (RGBA, error) {
	hex := strings.TrimSpace(value)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	alpha := 1.0
	switch len(hex) {
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("%w %q: %v", ErrInvalidColor, value, err)
		}
		alpha = float64(a) / 255
		hex = hex[:7]
	case 7:
	default:
		return RGBA{}, fmt.Errorf("%w %q", ErrInvalidColor, value)
	}

	rgb, err := colorful.Hex(hex)
	if err != nil {
		return RGBA{}, fmt.Errorf("%w %q: %v", ErrInvalidColor, value, err)
	}
	return RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: alpha}, nil
}
