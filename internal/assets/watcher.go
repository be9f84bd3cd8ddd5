package assets

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/logger"
)

// watchDebounce coalesces the burst of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

// Submitter is the part of Pipeline the watcher drives.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Ticket, error)
}

// Watcher resubmits requests whose files change on disk.
type Watcher struct {
	fs      *fsnotify.Watcher
	target  Submitter
	cache   *CachedSource // optional; changed paths are invalidated
	log     *zap.Logger
	byFile  map[string][]Request // absolute file path → requests reading it
	relPath map[string]string    // absolute file path → asset path

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher watches the directories holding every file of reqs under dir.
// Directories are watched rather than files so that editors replacing a file
// by rename are still noticed.
func NewWatcher(target Submitter, dir *DirSource, cache *CachedSource, reqs []Request) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fs:      fw,
		target:  target,
		cache:   cache,
		log:     logger.Named("watcher"),
		byFile:  make(map[string][]Request),
		relPath: make(map[string]string),
		pending: make(map[string]*time.Timer),
	}

	dirs := make(map[string]bool)
	for _, req := range reqs {
		for _, p := range req.Paths() {
			abs := dir.Path(p)
			w.byFile[abs] = append(w.byFile[abs], req)
			w.relPath[abs] = p
			dirs[filepath.Dir(abs)] = true
		}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", d, err)
		}
	}
	w.log.Info("watching assets", zap.Int("files", len(w.byFile)), zap.Int("dirs", len(dirs)))
	return w, nil
}

// Run handles file events until ctx ends, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx, filepath.Clean(event.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, file string) {
	if _, ok := w.byFile[file]; !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[file]; ok {
		t.Reset(watchDebounce)
		return
	}
	w.pending[file] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.pending, file)
		w.mu.Unlock()
		w.reload(ctx, file)
	})
}

func (w *Watcher) reload(ctx context.Context, file string) {
	if ctx.Err() != nil {
		return
	}
	if w.cache != nil {
		w.cache.Invalidate(w.relPath[file])
	}
	for _, req := range w.byFile[file] {
		w.log.Info("asset changed, reloading", zap.String("id", req.ID), zap.String("file", file))
		if _, err := w.target.Submit(ctx, req); err != nil {
			w.log.Warn("resubmit failed", zap.String("id", req.ID), zap.Error(err))
		}
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for f, t := range w.pending {
		t.Stop()
		delete(w.pending, f)
	}
}
