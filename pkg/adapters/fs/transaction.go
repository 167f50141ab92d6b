package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vellumkit/vellum/pkg/core"
)

// ErrTransactionClosed is returned by operations on a committed or rolled
// back transaction.
var ErrTransactionClosed = errors.New("transaction closed")

// Transaction implements core.Transaction for the filesystem. Changes are
// staged in memory and applied to disk (and git) in a single Commit.
type Transaction struct {
	id      string
	repo    *Repository
	staged  map[string]core.Post // slug -> post
	deleted map[string]bool      // slug -> bool
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction bound to repo.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{
		id:      uuid.NewString(),
		repo:    repo,
		staged:  make(map[string]core.Post),
		deleted: make(map[string]bool),
	}
}

// ID returns the transaction identifier.
func (t *Transaction) ID() string {
	return t.id
}

// Save stages a post for saving.
func (t *Transaction) Save(ctx context.Context, p core.Post) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}
	if p.Slug == "" {
		return core.ErrEmptySlug
	}

	t.staged[p.Slug] = p
	delete(t.deleted, p.Slug)
	return nil
}

// Get retrieves a post, favoring staged changes over the repository.
func (t *Transaction) Get(ctx context.Context, slug string) (core.Post, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return core.Post{}, ErrTransactionClosed
	}

	if t.deleted[slug] {
		return core.Post{}, fmt.Errorf("%w: %s", core.ErrNotFound, slug)
	}
	if p, ok := t.staged[slug]; ok {
		return p, nil
	}

	return t.repo.Get(ctx, slug)
}

// List merges the repository contents with the staged view.
func (t *Transaction) List(ctx context.Context) ([]core.Post, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransactionClosed
	}

	committed, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]core.Post, len(committed)+len(t.staged))
	for _, p := range committed {
		merged[p.Slug] = p
	}
	for slug, p := range t.staged {
		merged[slug] = p
	}
	for slug := range t.deleted {
		delete(merged, slug)
	}

	posts := make([]core.Post, 0, len(merged))
	for _, p := range merged {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug < posts[j].Slug })
	return posts, nil
}

// Delete stages a post for deletion.
func (t *Transaction) Delete(ctx context.Context, slug string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}
	if slug == "" {
		return core.ErrEmptySlug
	}

	t.deleted[slug] = true
	delete(t.staged, slug)
	return nil
}

// Commit applies all staged changes as one atomic batch: every write lands
// on disk before a single git commit records the lot.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}

	if !t.repo.config.Gitless {
		unlock, err := t.repo.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()
	}

	var filesToAdd []string
	var filesToRm []string

	for slug, p := range t.staged {
		filename, ser := t.repo.resolveFile(slug)
		fullPath := filepath.Join(t.repo.Dir, filename)
		filesToAdd = append(filesToAdd, filename)

		if p.Format == core.FormatNone && len(p.Metadata) > 0 {
			p.Format = t.repo.config.DefaultFormat
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("failed to create directories for %s: %w", slug, err)
		}

		data, err := ser.Serialize(p)
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", slug, err)
		}
		if err := writeFileAtomic(fullPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", slug, err)
		}
		t.repo.noteSelfWrite(filename, data)

		if info, err := os.Stat(fullPath); err == nil {
			t.repo.cache.Set(filepath.ToSlash(filename), &indexEntry{
				Slug:         slug,
				Title:        p.Metadata.Title(),
				Category:     p.Metadata.Category(),
				Keywords:     p.Metadata.Keywords(),
				LastModified: info.ModTime(),
			})
		}
	}

	for slug := range t.deleted {
		filename, _ := t.repo.resolveFile(slug)
		fullPath := filepath.Join(t.repo.Dir, filename)
		filesToRm = append(filesToRm, filename)

		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove file %s: %w", slug, err)
		}
		t.repo.cache.Delete(filepath.ToSlash(filename))
		t.repo.forgetSelfWrite(filename)
	}

	if !t.repo.config.Gitless {
		if len(filesToAdd) > 0 {
			if err := t.repo.git.Add(filesToAdd...); err != nil {
				return fmt.Errorf("failed to git add: %w", err)
			}
		}
		if len(filesToRm) > 0 {
			if err := t.repo.git.Rm(filesToRm...); err != nil {
				return fmt.Errorf("failed to git rm: %w", err)
			}
		}

		msg := changeReason
		if msg == "" {
			msg = "batch transaction update"
		}
		if err := t.repo.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	if err := t.repo.cache.Save(); err != nil && t.repo.config.Logger != nil {
		t.repo.config.Logger.Warn("failed to save post index", "error", err)
	}

	t.closed = true
	t.repo.releaseTransaction(t.id)
	return nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.staged = nil
	t.deleted = nil
	t.closed = true
	t.repo.releaseTransaction(t.id)
	return nil
}
