package build

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits for filesystem events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watch runs a build, then rebuilds whenever files under the assets dir
// change, until ctx is done. Build failures are logged and do not stop
// watching. onBuild, when set, is called after every build.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration, onBuild func(*Report, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := b.watchTree(watcher, b.cfg.AssetsDir); err != nil {
		return err
	}

	rebuild := func() {
		report, err := b.Run(ctx)
		if err != nil && !IsCanceled(err) {
			b.log.Error("build failed", zap.Error(err))
		}
		if onBuild != nil {
			onBuild(report, err)
		}
	}
	rebuild()

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if b.ignoredPath(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New directories need their own watch.
				_ = b.watchTree(watcher, event.Name)
			}
			b.log.Debug("asset changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			rebuild()
		}
	}
}

// watchTree adds root and every non-ignored directory below it.
func (b *Builder) watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != b.cfg.AssetsDir && b.ignoredPath(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func (b *Builder) ignoredPath(path string) bool {
	rel, err := filepath.Rel(b.cfg.AssetsDir, path)
	if err != nil {
		return false
	}
	return b.ignore.match(filepath.ToSlash(rel))
}
