package schemafile

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-iform/framework/form"
)

// WatchDelay is how long WatchFile waits after the last change event
// before reloading.
var WatchDelay = 100 * time.Millisecond

// Holder provides thread-safe access to a schema Set with hot reload
// support. A reload that fails keeps the previous Set.
type Holder struct {
	mu       sync.RWMutex
	set      *Set
	path     string
	reg      *form.Registry
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Set)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads the schema file at path and returns a holder for it.
func NewHolder(path string, reg *form.Registry, logger zerolog.Logger) (*Holder, error) {
	set, err := Load(path, reg)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	logger.Info().Str("path", absPath).Strs("forms", set.Names()).Msg("schemas loaded")

	return &Holder{
		set:    set,
		path:   absPath,
		reg:    reg,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Path returns the absolute path of the schema file.
func (h *Holder) Path() string { return h.path }

// Get returns the current Set.
func (h *Holder) Get() *Set {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.set
}

// Schema returns the current schema for name.
func (h *Holder) Schema(name string) (*form.Schema, error) {
	return h.Get().Get(name)
}

// Reload reloads the schema file from disk.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading schemas")

	next, err := Load(h.path, h.reg)
	if err != nil {
		h.logger.Error().Err(err).Msg("schema reload failed, keeping old schemas")
		return fmt.Errorf("reload schemas: %w", err)
	}

	h.mu.Lock()
	prev := h.set
	h.set = next
	listeners := slices.Clone(h.onChange)
	h.mu.Unlock()

	h.logChanges(prev, next)

	for _, fn := range listeners {
		fn(next)
	}

	h.logger.Info().Int("forms", next.Len()).Msg("schemas reloaded")
	return nil
}

// OnChange registers a callback run after every successful reload.
func (h *Holder) OnChange(fn func(*Set)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile reloads whenever the schema file is written or replaced.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory so editors that save by rename still trigger.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop(WatchDelay)

	h.logger.Info().Str("path", h.path).Msg("watching schema file for changes")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading schemas")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()
}

// Stop stops file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

// watchLoop coalesces bursts of events (editors often write a file in
// several steps) into one reload.
func (h *Holder) watchLoop(delay time.Duration) {
	filename := filepath.Base(h.path)
	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("schema file changed")
			settle.Reset(delay)

		case <-settle.C:
			if err := h.Reload(); err != nil {
				h.logger.Error().Err(err).Msg("file watch reload failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(prev, next *Set) {
	changes := Diff(prev, next)
	if changes.Empty() {
		h.logger.Debug().Msg("schema forms and fields unchanged")
		return
	}
	for _, name := range changes.Added {
		f, _ := next.Get(name)
		h.logger.Info().Str("form", name).Strs("fields", f.FieldNames()).Msg("form added")
	}
	for _, name := range changes.Removed {
		h.logger.Info().Str("form", name).Msg("form removed")
	}
	for _, fc := range changes.Fields {
		h.logger.Info().
			Str("form", fc.Form).
			Strs("added", fc.Added).
			Strs("removed", fc.Removed).
			Msg("form fields changed")
	}
}
