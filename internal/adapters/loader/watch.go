package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/pkg/logger"
)

const defaultDebounce = 250 * time.Millisecond

type watchOptions struct {
	logger   logger.Logger
	debounce time.Duration
}

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

// WithLogger sets the logger used for reload messages.
func WithLogger(l logger.Logger) WatchOption {
	return func(o *watchOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDebounce sets how long the file must be quiet before it is reloaded.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch reloads the dataset at path each time it is written and passes it to
// onChange. It runs until ctx is canceled. A reload that fails to decode is
// logged and skipped, so the previous dataset stays in effect.
//
// The parent directory is watched rather than the file so editors that save
// by rename are picked up.
func Watch(ctx context.Context, path string, onChange func(*model.Dataset), opts ...WatchOption) error {
	o := watchOptions{debounce: defaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("loader")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	o.logger.Info(ctx, "watching dataset file", logger.String("path", abs))

	timer := time.NewTimer(o.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(o.debounce)

		case <-timer.C:
			ds, err := LoadFile(abs)
			if err != nil {
				o.logger.Error(ctx, "dataset reload failed, keeping previous dataset",
					logger.String("path", abs), logger.Error(err))
				continue
			}
			o.logger.Info(ctx, "dataset reloaded",
				logger.String("path", abs),
				logger.Int("requisitions", len(ds.Requisitions)),
				logger.Int("candidates", len(ds.Candidates)))
			onChange(ds)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Error(ctx, "dataset watcher error", logger.Error(err))
		}
	}
}
