package settings

import (
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const pollInterval = 2 * time.Second

// Watch starts a background watcher that reloads configuration when any
// known settings file (or a new one appearing on the discovery path)
// changes, and calls onChange (in addition to any OnChange callbacks
// already registered) after each successful reload. It returns a stop
// function that terminates the watcher goroutine.
//
// fsnotify is the primary signal; a 2-second mtime poll runs alongside it
// as a fallback for filesystems where fsnotify doesn't fire (network
// shares, some container overlays) and to pick up newly-created files that
// fsnotify, watching existing paths only, would otherwise miss.
func (s *Settings) Watch(onChange func(*Settings)) (stop func(), err error) {
	if onChange != nil {
		s.OnChange(onChange)
	}

	watcher, werr := fsnotify.NewWatcher()
	if werr != nil {
		slog.Warn("fsnotify unavailable, falling back to poll-only watch", "error", werr)
	} else {
		for _, f := range s.Files() {
			if err := watcher.Add(f); err != nil {
				slog.Debug("fsnotify add failed", "path", f, "error", err)
			}
		}
	}

	done := make(chan struct{})
	mtimes := s.snapshotMtimes()

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		var events <-chan fsnotify.Event
		if watcher != nil {
			events = watcher.Events
		}
		for {
			select {
			case <-done:
				if watcher != nil {
					_ = watcher.Close()
				}
				return
			case <-events:
				s.reloadIfChanged(&mtimes, watcher)
			case <-ticker.C:
				s.reloadIfChanged(&mtimes, watcher)
			}
		}
	}()

	return func() { close(done) }, nil
}

func (s *Settings) snapshotMtimes() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, f := range s.Files() {
		if info, err := os.Stat(f); err == nil {
			out[f] = info.ModTime()
		}
	}
	return out
}

// reloadIfChanged compares the current mtimes (including newly discovered
// files) against the last snapshot and reloads on any difference.
func (s *Settings) reloadIfChanged(mtimes *map[string]time.Time, watcher *fsnotify.Watcher) {
	discovered, err := discoverFiles(s.cwd)
	if err != nil {
		return
	}

	current := make(map[string]time.Time, len(discovered))
	changed := false
	for _, f := range discovered {
		info, err := os.Stat(f.path)
		if err != nil {
			continue
		}
		current[f.path] = info.ModTime()
		if prev, ok := (*mtimes)[f.path]; !ok || !prev.Equal(info.ModTime()) {
			changed = true
		}
		if watcher != nil {
			_ = watcher.Add(f.path)
		}
	}
	if len(current) != len(*mtimes) {
		changed = true
	}

	if !changed {
		return
	}
	*mtimes = current
	if err := s.Reload(); err != nil {
		slog.Error("settings reload failed", "error", err)
	} else {
		slog.Info("settings reloaded")
	}
}
