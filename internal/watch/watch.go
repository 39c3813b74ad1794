// Package watch reports changes to individual files.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/opencode-ai/illo/internal/logging"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of writes from editors and build tools.
const DefaultDebounce = 150 * time.Millisecond

// File watches a single file and calls OnChange after it is written,
// created or replaced. The parent directory is watched so that atomic
// rename-over saves are seen.
type File struct {
	Path     string
	Debounce time.Duration
	OnChange func(path string)

	logger zerolog.Logger
}

// NewFile returns a watcher for path.
func NewFile(path string, onChange func(path string)) *File {
	return &File{
		Path:     path,
		Debounce: DefaultDebounce,
		OnChange: onChange,
		logger:   logging.Component("watch"),
	}
}

// Run watches until ctx is canceled.
func (f *File) Run(ctx context.Context) error {
	if strings.TrimSpace(f.Path) == "" {
		return errors.New("watch path is required")
	}
	if f.OnChange == nil {
		return errors.New("watch callback is required")
	}

	target, err := filepath.Abs(f.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", f.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	debounce := f.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case <-timer.C:
			f.logger.Debug().Str("path", target).Msg("file changed")
			f.OnChange(target)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn().Err(err).Str("path", target).Msg("watch error")
		}
	}
}
