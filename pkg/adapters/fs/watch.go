package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/vellumkit/vellum/pkg/core"
)

// Watch emits an event for every post matching pattern that changes until
// ctx is cancelled. The pattern uses doublestar glob syntax against slugs;
// an empty pattern matches everything.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %s", pattern)
	}

	events := make(chan core.Event, r.config.EventBuffer)
	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
		close(events)
	}()

	return events, nil
}

// Reconcile rescans the content directory against the index and returns
// synthetic events for every change the watcher may have missed.
func (r *Repository) Reconcile(ctx context.Context) ([]core.Event, error) {
	if err := r.cache.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("post index unreadable, rebuilding", "error", err)
	}

	before := make(map[string]time.Time)
	r.cache.Range(func(relPath string, entry *indexEntry) bool {
		before[relPath] = entry.LastModified
		return true
	})

	var events []core.Event
	seen := make(map[string]bool)
	now := time.Now().Unix()

	err := filepath.WalkDir(r.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == r.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(r.Dir, path)
		if err != nil {
			return err
		}
		slug, ok := r.slugFor(relPath)
		if !ok {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		seen[relPath] = true

		info, err := d.Info()
		if err != nil {
			return nil
		}

		prev, known := before[relPath]
		switch {
		case !known:
			events = append(events, core.Event{Type: core.EventCreate, Slug: slug, Timestamp: now})
		case info.ModTime().After(prev):
			events = append(events, core.Event{Type: core.EventModify, Slug: slug, Timestamp: now})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for relPath := range before {
		if seen[relPath] {
			continue
		}
		if slug, ok := r.slugFor(relPath); ok {
			events = append(events, core.Event{Type: core.EventDelete, Slug: slug, Timestamp: now})
		}
	}

	// Refresh the index so the next reconcile diffs against current state.
	if _, err := r.List(ctx); err != nil {
		return nil, err
	}
	r.recordReconcile()

	return events, nil
}

// recursiveAdd registers every directory under the content root with the
// watcher, skipping .git and the system dir.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(r.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || d.Name() == r.config.SystemDir {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// shouldIgnore filters watcher noise: temp files from atomic writes,
// anything inside the system dir, non-post files, slugs outside the
// pattern, and echoes of the repository's own writes.
func (r *Repository) shouldIgnore(event fsnotify.Event, pattern string) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, TempFilePrefix) {
		return true
	}

	relPath, err := filepath.Rel(r.Dir, event.Name)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return true
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == r.config.SystemDir || strings.HasPrefix(relPath, r.config.SystemDir+"/") {
		return true
	}

	slug, ok := r.slugFor(relPath)
	if !ok {
		return true
	}
	if match, err := doublestar.Match(pattern, slug); err != nil || !match {
		return true
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		if data, err := os.ReadFile(event.Name); err == nil && r.isSelfWrite(relPath, data) {
			return true
		}
	}

	return false
}

// mapEventType converts an fsnotify op to a domain event type, or "" for
// ops that do not concern posts (chmod).
func (r *Repository) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

// resolveSlug maps an absolute event path back to the slug Get expects.
func (r *Repository) resolveSlug(path string) (string, error) {
	relPath, err := filepath.Rel(r.Dir, path)
	if err != nil {
		return "", err
	}
	slug, ok := r.slugFor(relPath)
	if !ok {
		return "", fmt.Errorf("not a post file: %s", relPath)
	}
	return slug, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// noteSelfWrite records the checksum of content this process just wrote,
// so the watcher can tell its own writes from external edits.
func (r *Repository) noteSelfWrite(relPath string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentWrites[filepath.ToSlash(relPath)] = checksum(data)
}

func (r *Repository) isSelfWrite(relPath string, data []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum, ok := r.recentWrites[filepath.ToSlash(relPath)]
	return ok && sum == checksum(data)
}

func (r *Repository) forgetSelfWrite(relPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recentWrites, filepath.ToSlash(relPath))
}
