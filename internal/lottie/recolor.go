package lottie

import (
	"errors"
	"fmt"

	"github.com/opencode-ai/illo/internal/logging"
)

// ErrStaleIndex indicates an index is applied to a document other than the
// one it was built from.
var ErrStaleIndex = errors.New("index does not belong to document")

// Resolver returns the active color for a CSS variable as a hex string.
type Resolver interface {
	Resolve(cssVar string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(cssVar string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(cssVar string) (string, error) {
	return f(cssVar)
}

// Stats summarizes a recolor pass.
type Stats struct {
	Tokens    int `json:"tokens"`
	Shapes    int `json:"shapes"`
	Gradients int `json:"gradients"`
	Skipped   int `json:"skipped"`
}

// Recolor rewrites, in place, the color fields of every element in idx using
// the colors returned by resolver. Each token is resolved once. Elements that
// cannot be recolored are logged and skipped; the pass never fails because
// of a single token or element. The index itself is not modified.
func Recolor(doc *Document, idx *Index, resolver Resolver) (Stats, error) {
	var stats Stats
	if doc == nil {
		return stats, ErrEmptyDocument
	}
	if idx == nil || idx.Len() == 0 {
		return stats, nil
	}
	if idx.generation != doc.generation {
		return stats, ErrStaleIndex
	}
	if resolver == nil {
		return stats, errors.New("palette resolver is required")
	}

	logger := logging.Component("lottie")

	for _, token := range idx.order {
		color := idx.colors[token]

		hex, err := resolver.Resolve(color.CSSVar)
		if err != nil {
			logger.Warn().Err(err).Str("token", string(token)).Msg("unable to resolve token color")
			stats.Skipped += len(color.Shapes) + len(color.Gradients)
			continue
		}
		rgba, err := ParseHexColor(hex)
		if err != nil {
			logger.Warn().Err(err).Str("token", string(token)).Msg("resolved color is not a hex color")
			stats.Skipped += len(color.Shapes) + len(color.Gradients)
			continue
		}
		stats.Tokens++

		for _, id := range color.Shapes {
			fields, _ := doc.Object(id)
			if err := recolorShape(fields, hex, rgba); err != nil {
				logger.Info().Err(err).Str("token", string(token)).Int("node", int(id)).Msg("unable to assign color to shape")
				stats.Skipped++
				continue
			}
			stats.Shapes++
		}

		for _, id := range color.Gradients {
			fields, _ := doc.Object(id)
			if err := recolorGradient(fields, rgba); err != nil {
				logger.Info().Err(err).Str("token", string(token)).Int("node", int(id)).Msg("unable to assign color to gradient")
				stats.Skipped++
				continue
			}
			stats.Gradients++
		}
	}

	return stats, nil
}

// recolorShape prefers the "c.k" RGBA array and falls back to the "sc" hex
// string.
func recolorShape(fields map[string]any, hex string, rgba RGBA) error {
	if c, ok := fields["c"].(map[string]any); ok {
		if k, ok := c["k"].([]any); ok && len(k) == 4 {
			k[0], k[1], k[2], k[3] = rgba.R, rgba.G, rgba.B, rgba.A
			return nil
		}
		c["k"] = rgba.Array()
		return nil
	}
	if _, ok := fields["sc"].(string); ok {
		fields["sc"] = hex
		return nil
	}
	return errors.New("shape has neither c nor sc color")
}

// recolorGradient overwrites R, G and B of each of the p stops. Stop times
// and trailing alpha pairs are left as they are.
func recolorGradient(fields map[string]any, rgba RGBA) error {
	g, ok := fields["g"].(map[string]any)
	if !ok {
		return errors.New("gradient has no g")
	}
	points, ok := g["p"].(float64)
	if !ok || points < 0 {
		return errors.New("gradient has no stop count")
	}
	k, ok := g["k"].(map[string]any)
	if !ok {
		return errors.New("gradient has no k")
	}
	stops, ok := k["k"].([]any)
	if !ok {
		return errors.New("gradient stops are not an array")
	}

	for i := 0; i < int(points); i++ {
		base := 4 * i
		if base+3 >= len(stops) {
			return fmt.Errorf("gradient declares %d stops but holds %d values", int(points), len(stops))
		}
		stops[base+1] = rgba.R
		stops[base+2] = rgba.G
		stops[base+3] = rgba.B
	}
	return nil
}
