package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Watcher watches the content source tree and forwards change notifications
// to a Debouncer. Directories created under the root are added on the fly.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
}

// NewWatcher creates a recursive watcher over root.
func NewWatcher(root string, debouncer *Debouncer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{root: root, fsWatcher: fsWatcher, debouncer: debouncer}
	if err := w.addRecursive(root); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Run forwards events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.fsWatcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New directories must be watched too; errors here only
				// mean we miss events under a vanished path.
				if err := w.addRecursive(event.Name); err != nil {
					slog.Debug("Watch add failed", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.debouncer.Request()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}
