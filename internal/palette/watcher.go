package palette

import (
	"context"

	"github.com/opencode-ai/illo/internal/logging"
	"github.com/opencode-ai/illo/internal/watch"
)

// Watch reloads the palette file at path whenever it changes and merges it
// into theme, which notifies subscribers. It blocks until ctx is canceled.
func Watch(ctx context.Context, path string, theme *Theme) error {
	logger := logging.Component("palette")
	w := watch.NewFile(path, func(changed string) {
		schemes, err := LoadFile(changed)
		if err != nil {
			logger.Warn().Err(err).Str("path", changed).Msg("palette reload failed")
			return
		}
		logger.Info().Str("path", changed).Int("schemes", len(schemes)).Msg("palette reloaded")
		theme.Merge(schemes)
	})
	return w.Run(ctx)
}
