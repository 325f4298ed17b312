package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/flowform/pkg/errors"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// watchFile calls fn whenever path changes, until ctx is done. The parent
// directory is watched so saves that replace the file by rename are seen.
// Errors from fn are logged and watching continues.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func() error) error {
	logger := loggerFromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnsupported, err, "watch %s", path)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", path)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", path)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			logger.Debug("change detected", "file", path)
			if err := fn(); err != nil {
				printError("%s", errors.UserMessage(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "file", path, "error", err)
		}
	}
}
