package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/illo/internal/config"
	"github.com/opencode-ai/illo/internal/db"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/tokens"
	"github.com/opencode-ai/illo/internal/worker"
)

// loadTheme builds the theme from the built-in schemes, overlays the
// configured palette file and activates scheme (or the configured one).
func loadTheme(cfg *config.Config, scheme string) (*palette.Theme, error) {
	theme := palette.DefaultTheme()

	if path := strings.TrimSpace(cfg.Palette.File); path != "" {
		schemes, err := palette.LoadFile(path)
		if err != nil {
			return nil, &PreflightError{
				Message:  fmt.Sprintf("unable to load palette file: %v", err),
				Hint:     "palette files map schemes to token colors; quote hex values in YAML",
				NextStep: "illo palette --scheme light --json",
			}
		}
		theme.Merge(schemes)
	}

	if strings.TrimSpace(scheme) == "" {
		scheme = cfg.Palette.Scheme
	}
	if err := theme.SetScheme(scheme); err != nil {
		return nil, &PreflightError{
			Message: err.Error(),
			Hint:    "available schemes: " + strings.Join(theme.Schemes(), ", "),
		}
	}
	return theme, nil
}

func tokenSet(cfg *config.Config) tokens.Set {
	return tokens.WithExtra(cfg.Tokens.Extra)
}

// workerFactory returns the configured worker. Process mode without a
// command runs this binary's worker subcommand.
func workerFactory(cfg *config.Config, forceProcess bool) (worker.Factory, string, error) {
	mode := cfg.Worker.Mode
	if forceProcess {
		mode = config.WorkerModeProcess
	}
	if mode != config.WorkerModeProcess {
		return worker.LocalFactory, config.WorkerModeLocal, nil
	}

	command := cfg.Worker.Command
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, "", fmt.Errorf("locate worker binary: %w", err)
		}
		command = []string{exe, "worker"}
	}
	return worker.ProcessFactory(command), config.WorkerModeProcess, nil
}

// openJournal opens and migrates the journal, or returns nil when no journal
// path is configured.
func openJournal(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	path := strings.TrimSpace(cfg.Journal.Path)
	if path == "" {
		return nil, nil
	}

	database, err := db.Open(db.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if _, err := database.MigrateUp(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return database, nil
}

// requireJournal is openJournal for commands that cannot run without one.
func requireJournal(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := openJournal(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if database == nil {
		return nil, &PreflightError{
			Message:  "no event journal configured",
			Hint:     "set journal.path in the config file or ILLO_JOURNAL_PATH",
			NextStep: "ILLO_JOURNAL_PATH=~/.cache/illo/journal.db illo play welcome.json",
		}
	}
	return database, nil
}
