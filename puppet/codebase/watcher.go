package codebase

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher keeps a Codebase in sync with the manifests on disk.
type FileWatcher struct {
	codebase  *Codebase
	w         *fsnotify.Watcher
	done      chan struct{}
	started   bool
	closeOnce sync.Once
	closeErr  error

	// OnChange is called after path was re-parsed or removed. It must be set
	// before Start.
	OnChange func(path string, removed bool)
}

func NewFileWatcher(c *Codebase) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &FileWatcher{
		codebase: c,
		w:        w,
		done:     make(chan struct{}),
	}, nil
}

// Start watches every directory below the codebase root. fsnotify does not
// recurse, so directories created later are added as they appear. The
// watcher is closed when Start fails.
func (w *FileWatcher) Start() error {
	if err := w.addTree(w.codebase.RootDir()); err != nil {
		w.closeWatcher()
		return err
	}
	w.started = true
	go w.run()
	return nil
}

// Stop closes the watcher and waits for the event loop to exit. It may be
// called before Start and more than once.
func (w *FileWatcher) Stop() error {
	err := w.closeWatcher()
	if w.started {
		<-w.done
	}
	return err
}

func (w *FileWatcher) closeWatcher() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.w.Close()
	})
	return w.closeErr
}

func (w *FileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *FileWatcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Errorf("watch: %s", err)
		}
	}
}

func (w *FileWatcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.codebase.RemoveFile(ev.Name)
		w.changed(ev.Name, true)
	case ev.Op&fsnotify.Create != 0:
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.addDir(ev.Name)
			return
		}
		w.rescan(ev.Name)
	case ev.Op&fsnotify.Write != 0:
		w.rescan(ev.Name)
	}
}

// addDir starts watching a new directory and picks up the manifests that
// were written into it before the watch was in place.
func (w *FileWatcher) addDir(dir string) {
	if err := w.addTree(dir); err != nil {
		log.Errorf("%s", err)
		return
	}
	paths, err := ManifestPaths(dir)
	if err != nil {
		log.Errorf("%s", err)
		return
	}
	for _, path := range paths {
		w.rescan(path)
	}
}

func (w *FileWatcher) rescan(path string) {
	if !IsManifest(path) {
		return
	}
	if err := w.codebase.ScanFile(path); err != nil {
		log.Warningf("rescan %s: %s", path, err)
		return
	}
	log.Debugf("rescanned %s", path)
	w.changed(path, false)
}

func (w *FileWatcher) changed(path string, removed bool) {
	if w.OnChange != nil {
		w.OnChange(path, removed)
	}
}
