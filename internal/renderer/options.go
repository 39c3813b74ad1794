package renderer

import (
	"context"

	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/source"
	"github.com/opencode-ai/illo/internal/tokens"
	"github.com/opencode-ai/illo/internal/worker"
	"github.com/rs/zerolog"
)

// Options configure a Controller.
type Options struct {
	// Source is the animation asset location.
	Source string
	// Autoplay starts playback as soon as the animation loads.
	Autoplay bool
	// Loop restarts playback at the last frame.
	Loop bool
	// Dynamic recolors token-annotated elements from Palette. When false the
	// animation keeps its bundled colors.
	Dynamic bool
	// Tokens is the set of recognized color tokens.
	Tokens tokens.Set
	// PixelRatio scales layout sizes into draw buffer sizes.
	PixelRatio float64

	Loader        source.Loader
	Palette       palette.Resolver
	Notifier      palette.Notifier
	WorkerFactory worker.Factory
	EventSink     EventSink
	Logger        *zerolog.Logger

	// Refresh, if set, is awaited after a scheme change and before the
	// palette is read, so that resolved colors reflect the new scheme.
	Refresh func(ctx context.Context) error
}

// DefaultOptions returns options with autoplay and looping enabled and
// dynamic coloring disabled.
func DefaultOptions() Options {
	return Options{
		Autoplay:   true,
		Loop:       true,
		Dynamic:    false,
		PixelRatio: 1,
	}
}

func (o *Options) applyDefaults() {
	if o.Tokens == nil {
		o.Tokens = tokens.DefaultSet()
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = 1
	}
	if o.Loader == nil {
		o.Loader = source.NewDefaultLoader()
	}
	if o.Palette == nil {
		theme := palette.DefaultTheme()
		o.Palette = theme
		if o.Notifier == nil {
			o.Notifier = theme
		}
	}
	if o.WorkerFactory == nil {
		o.WorkerFactory = worker.LocalFactory
	}
	if o.EventSink == nil {
		o.EventSink = NoopSink{}
	}
}

// DrawSize converts a layout size into a draw buffer size so that the
// rendering stays sharp on high density displays.
func DrawSize(bounds worker.Size, pixelRatio float64) worker.Size {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	return worker.Size{
		Width:  bounds.Width * pixelRatio,
		Height: bounds.Height * pixelRatio,
	}
}
