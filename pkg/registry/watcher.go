package registry

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mindglass/debate-engine/pkg/log"
)

// ChangeCallback is invoked with the newly loaded Registry after a
// successful hot-reload.
type ChangeCallback func(*Registry)

// Watcher watches the registry YAML file and reloads it on change,
// adapted from the teacher's pkg/config/watcher.go (which did the same for
// its agent-pipeline config) but built directly on fsnotify rather than on
// viper.WatchConfig, since Registry is not itself a viper-bound struct.
type Watcher struct {
	mu        sync.RWMutex
	path      string
	current   *Registry
	callbacks []ChangeCallback
	fsw       *fsnotify.Watcher
	stop      chan struct{}
}

// NewWatcher loads path and prepares to watch it for changes.
func NewWatcher(path string) (*Watcher, error) {
	reg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:    path,
		current: reg,
		fsw:     fsw,
		stop:    make(chan struct{}),
	}, nil
}

// Current returns the most recently loaded Registry (thread-safe).
func (w *Watcher) Current() *Registry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback fired after each successful reload.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Run blocks, reloading on filesystem events until Stop is called.
func (w *Watcher) Run() {
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.WithError(err).WithField("path", w.path).Warn("registry watcher error")
		}
	}
}

// Stop ends Run and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stop)
	w.fsw.Close()
}

func (w *Watcher) reload() {
	reg, err := Load(w.path)
	if err != nil {
		log.WithError(err).WithField("path", w.path).Error("failed to reload agent registry")
		return
	}

	w.mu.Lock()
	w.current = reg
	callbacks := append([]ChangeCallback(nil), w.callbacks...)
	w.mu.Unlock()

	log.WithField("path", w.path).Info("agent registry reloaded")
	for _, cb := range callbacks {
		cb(reg)
	}
}
