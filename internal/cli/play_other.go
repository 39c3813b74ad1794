//go:build !unix

package cli

import (
	"context"

	"github.com/opencode-ai/illo/internal/palette"
	"github.com/rs/zerolog"
)

func toggleSchemeOnSignal(ctx context.Context, theme *palette.Theme, logger zerolog.Logger) {
	<-ctx.Done()
}
