//go:build unix

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/opencode-ai/illo/internal/palette"
	"github.com/rs/zerolog"
)

// toggleSchemeOnSignal flips between the light and dark schemes on SIGUSR1
// until ctx is done.
func toggleSchemeOnSignal(ctx context.Context, theme *palette.Theme, logger zerolog.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			next := palette.SchemeDark
			if theme.Scheme() == palette.SchemeDark {
				next = palette.SchemeLight
			}
			if err := theme.SetScheme(next); err != nil {
				logger.Warn().Err(err).Msg("scheme toggle failed")
				continue
			}
			logger.Info().Str("scheme", next).Msg("scheme changed")
		}
	}
}
