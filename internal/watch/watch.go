// Package watch reloads a configuration file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it into place
// are still followed. Saves that leave the content unchanged since the
// last successful handoff are dropped by comparing a checksum of the file.
package watch

import (
	"context"
	"errors"
	"hash/crc64"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/san-kum/arbor/internal/config"
)

const DefaultDebounce = 100 * time.Millisecond

var crcTable = crc64.MakeTable(crc64.ECMA)

// Handler receives every successfully loaded and validated configuration.
// A returned error goes to the ErrorHandler and leaves the content
// unacknowledged, so the next save retries it even if unchanged.
type Handler func(cfg config.Config) error

// ErrorHandler receives load and validation failures. The watcher keeps
// running after reporting them.
type ErrorHandler func(err error)

type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onConfig Handler
	onError  ErrorHandler
	lastSum  uint64
	seen     bool
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

func WithErrorHandler(fn ErrorHandler) Option {
	return func(w *Watcher) { w.onError = fn }
}

func New(path string, onConfig Handler, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		onConfig: onConfig,
		onError:  func(error) {},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run loads the file once, then reloads it after every burst of changes
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("watch: started", "path", w.path)
	w.reload()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("watch: event", "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch: watcher error", "err", err)
			w.onError(err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// mid-rename; the create event will follow
			w.logger.Debug("watch: file missing", "path", w.path)
			return
		}
		w.fail(err)
		return
	}

	if len(data) == 0 {
		// truncated ahead of a write
		w.logger.Debug("watch: file empty", "path", w.path)
		return
	}

	sum := crc64.Checksum(data, crcTable)
	if w.seen && sum == w.lastSum {
		w.logger.Debug("watch: content unchanged")
		return
	}
	cfg, err := config.Load(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.fail(err)
		return
	}
	if err := w.onConfig(*cfg); err != nil {
		w.fail(err)
		return
	}
	w.lastSum, w.seen = sum, true
	w.logger.Info("watch: reloaded", "path", w.path, "name", cfg.Name)
}

func (w *Watcher) fail(err error) {
	w.logger.Warn("watch: reload failed", "err", err)
	w.onError(err)
}
