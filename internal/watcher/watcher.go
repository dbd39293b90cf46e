package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quietloop/intentd/internal/config"
)

// Service watches the configuration file for changes and reloads it,
// invoking a callback with the freshly parsed configuration. Editors that
// replace the file (rename then create) are handled by watching the parent
// directory and filtering on the file name.
type Service struct {
	path     string
	onChange func(*config.Config)
	logger   *slog.Logger
	debounce time.Duration
}

// NewService creates a config file watcher. onChange runs on the watcher
// goroutine after each successful reload.
func NewService(path string, onChange func(*config.Config), logger *slog.Logger) *Service {
	return &Service{
		path:     path,
		onChange: onChange,
		logger:   logger.With("component", "config-watcher"),
		debounce: 200 * time.Millisecond,
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// Start blocks until ctx is canceled. A watcher that cannot be created is
// logged and reload support is disabled for the process lifetime.
func (s *Service) Start(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, config reload disabled", "error", err)
		<-ctx.Done()
		return
	}
	defer w.Close() //nolint:errcheck

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		s.logger.Warn("watching config directory failed, config reload disabled", "dir", dir, "error", err)
		<-ctx.Done()
		return
	}

	s.logger.Info("config watcher starting", "path", s.path)

	// Debounce timer coalescing bursts of write events into one reload.
	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	reloadPending := false

	base := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("config watcher stopping")
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(s.debounce)
			reloadPending = true

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-debounceTimer.C:
			if reloadPending {
				reloadPending = false
				s.reload()
			}
		}
	}
}

func (s *Service) reload() {
	cfg, err := config.Load(s.path)
	if err != nil {
		s.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}
	s.logger.Info("config reloaded", "path", s.path)
	s.onChange(cfg)
}
