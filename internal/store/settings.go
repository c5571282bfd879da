package store

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SettingsStore wraps FileStore[Settings] and watches the settings file
// for external writes (e.g. the web UI saving new PID tunings or probe
// profiles), invoking onChange with the freshly reloaded Settings. This
// mirrors 99souls-ariadne's RuntimeConfigManager/HotReloadSystem pair,
// adapted from YAML to the JSON settings file this module persists.
type SettingsStore struct {
	*FileStore[Settings]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	errLog  *log.Logger
}

func NewSettingsStore(path string, errLog *log.Logger) *SettingsStore {
	if errLog == nil {
		errLog = log.Default()
	}
	return &SettingsStore{
		FileStore: NewFileStore(path, func() Settings { return Settings{} }, errLog),
		errLog:    errLog,
	}
}

// Watch starts an fsnotify watch on the settings file's directory and
// calls onChange(newSettings) whenever the file is written. It returns a
// stop function; callers MUST call it on shutdown to release the watcher.
// A failure to start the watcher is logged and treated as non-fatal (spec
// §7 "HAL transient I/O: logged, retried"; the same posture applies to
// this ambient capability).
func (s *SettingsStore) Watch(onChange func(Settings)) (stop func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.errLog.Printf("settings: failed to start file watcher: %v", err)
		return func() {}, err
	}
	if err := w.Add(dirOf(s.path)); err != nil {
		s.errLog.Printf("settings: failed to watch %s: %v", dirOf(s.path), err)
		_ = w.Close()
		return func() {}, err
	}
	s.watcher = w

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				updated, err := s.Read()
				if err != nil {
					s.errLog.Printf("settings: reload after fs event failed: %v", err)
					continue
				}
				onChange(updated)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.errLog.Printf("settings: watcher error: %v", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = w.Close()
	}, nil
}

func dirOf(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	if i < 0 {
		return "."
	}
	return path[:i]
}
