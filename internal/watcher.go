package internal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps fsnotify with media-file filtering: it reports newly created
// recognized files under a root, following new subdirectories as they
// appear.
type Watcher struct {
	watcher *fsnotify.Watcher
	cfg     *Config
	created chan string
	errs    chan error
	done    chan struct{}
}

// NewWatcher starts watching root and all its subdirectories.
func NewWatcher(root string, cfg *Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsWatcher,
		cfg:     cfg,
		created: make(chan string, 100),
		errs:    make(chan error, 10),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.processEvents()
	return w, nil
}

// addRecursive adds a directory and all its subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && (strings.HasPrefix(name, ".") || skippableDirs[name]) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) {
				continue
			}

			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				// Follow new subdirectories.
				w.addRecursive(event.Name)
				continue
			}

			if w.cfg.Classify(filepath.Base(event.Name)) == KindUnclassified {
				continue
			}

			select {
			case w.created <- event.Name:
			default:
				// Channel full, drop event
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}

		case <-w.done:
			return
		}
	}
}

// Created returns the channel of newly created media file paths.
func (w *Watcher) Created() <-chan string {
	return w.created
}

func (w *Watcher) Errors() <-chan error {
	return w.errs
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
