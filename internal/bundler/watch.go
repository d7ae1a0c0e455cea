package bundler

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/Iron-Ham/nextron/internal/logging"
)

// fileWatcher watches directory trees and signals on Changes once a burst of
// file-system events has gone quiet for the debounce window.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	ignore   []glob.Glob
	debounce time.Duration
	logger   *logging.Logger

	changes chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

func newFileWatcher(root string, dirs []string, ignore []glob.Glob, debounce time.Duration, logger *logging.Logger) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &fileWatcher{
		watcher:  watcher,
		root:     root,
		ignore:   ignore,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, dir := range dirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
		fw.watchDirRecursive(dir)
	}

	go fw.loop()
	return fw, nil
}

// Changes receives one value per debounced burst. It holds at most one
// pending signal, so bursts arriving during a rebuild collapse into one.
func (fw *fileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// watchDirRecursive adds all non-ignored subdirectories to the watcher.
func (fw *fileWatcher) watchDirRecursive(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && fw.ignored(path) {
			return filepath.SkipDir
		}
		_ = fw.watcher.Add(path)
		return nil
	})
}

// ignored reports whether path matches an ignore pattern, either as a path
// relative to the project root or by its base name.
func (fw *fileWatcher) ignored(path string) bool {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, g := range fw.ignore {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

func (fw *fileWatcher) loop() {
	defer close(fw.doneCh)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C
	pending := 0

	for {
		select {
		case <-fw.stopCh:
			debounceTimer.Stop()
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if fw.ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					fw.watchDirRecursive(ev.Name)
				}
			}

			pending++
			debounceTimer.Reset(fw.debounce)

		case <-debounceTimer.C:
			if pending == 0 {
				continue
			}
			fw.logger.Debug("file changes settled", "events", pending)
			pending = 0
			select {
			case fw.changes <- struct{}{}:
			default:
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}

// Close stops the loop and releases the fsnotify watcher. Safe to call more
// than once.
func (fw *fileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.stopCh)
		<-fw.doneCh
		err = fw.watcher.Close()
	})
	return err
}
