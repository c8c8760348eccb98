package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// watchDelay groups the bursts of events editors emit on save.
const watchDelay = 100 * time.Millisecond

// Watcher calls a function when a file changes on disk.
type Watcher struct {
	path    string
	fn      func(error)
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch calls fn with the reloaded configuration, or the load error, each
// time the configuration file at path is written or replaced.
func Watch(path string, fn func(*Config, error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return WatchFile(abs, func(err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(Load(afero.NewOsFs(), abs))
	})
}

// WatchFile calls fn with a nil error each time the file at path is
// written or replaced, and with the error when watching fails. The
// directory of the file is watched so that atomic renames are observed.
func WatchFile(path string, fn func(error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	w := &Watcher{path: abs, fn: fn, watcher: fw, done: make(chan struct{})}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Close stops watching. No callback runs after Close returns.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	timer := time.NewTimer(watchDelay)
	timer.Stop()
	defer timer.Stop()
	var changed <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if name, err := filepath.Abs(event.Name); err != nil || name != w.path {
				continue
			}
			timer.Reset(watchDelay)
			changed = timer.C
		case <-changed:
			changed = nil
			w.fn(nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.fn(fmt.Errorf("config: watch: %w", err))
		case <-w.done:
			return
		}
	}
}
