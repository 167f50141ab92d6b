// Package fs implements core.Repository on a plain directory of content
// files, optionally versioned with git.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/git"
)

// DefaultSystemDir is where the index cache lives inside a site.
const DefaultSystemDir = ".vellum"

// Config holds the configuration for the filesystem repository.
type Config struct {
	Dir           string
	AutoInit      bool
	Gitless       bool
	MustExist     bool
	Strict        bool
	ReadOnly      bool
	Logger        *slog.Logger
	SystemDir     string      // e.g. ".vellum"
	DefaultFormat core.Format // front-matter dialect for posts that do not declare one
	EventBuffer   int         // capacity of Watch event channels
	ErrorHandler  func(error) // invoked with asynchronous watcher errors
}

// Repository implements core.Repository using the filesystem and git.
type Repository struct {
	Dir    string
	git    *git.Client
	cache  *cache
	config Config

	mu            sync.RWMutex
	serializers   map[string]Serializer
	transactions  map[string]*Transaction
	recentWrites  map[string]string // relPath -> content checksum
	watcherActive bool
	lastReconcile time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.DefaultFormat == core.FormatNone {
		config.DefaultFormat = core.FormatYAML
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = core.DefaultEventBuffer
	}

	return &Repository{
		Dir:          config.Dir,
		git:          git.NewClient(config.Dir, config.Logger),
		cache:        newCache(config.Dir, config.SystemDir),
		config:       config,
		serializers:  DefaultSerializers(config.Strict),
		transactions: make(map[string]*Transaction),
		recentWrites: make(map[string]string),
	}
}

// IsGitless reports whether the repository operates without versioning.
func (r *Repository) IsGitless() bool {
	return r.config.Gitless
}

// RegisterSerializer installs a serializer for a file extension.
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[ext] = s
}

func (r *Repository) serializerFor(ext string) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[ext]
	return s, ok
}

func (r *Repository) serializerExts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.serializers))
	for ext := range r.serializers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}

	tx := NewTransaction(r)
	r.mu.Lock()
	r.transactions[tx.ID()] = tx
	r.mu.Unlock()
	return tx, nil
}

func (r *Repository) releaseTransaction(id string) {
	r.mu.Lock()
	delete(r.transactions, id)
	r.mu.Unlock()
}

// Initialize performs the necessary setup for the repository (mkdir,
// git init, ignore rules).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Dir)
		if os.IsNotExist(err) {
			return fmt.Errorf("content directory does not exist: %s", r.Dir)
		}
		if err != nil {
			return fmt.Errorf("failed to stat content directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("content path is not a directory: %s", r.Dir)
		}
	} else {
		if err := os.MkdirAll(r.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create content directory: %w", err)
		}
	}

	if !r.config.Gitless {
		if !git.IsInstalled() {
			return fmt.Errorf("git is not installed")
		}

		wasNewRepo := false
		if !r.git.IsRepo() {
			if r.config.AutoInit {
				if err := r.git.Init(); err != nil {
					return fmt.Errorf("failed to git init: %w", err)
				}
				wasNewRepo = true
			} else {
				return fmt.Errorf("path is not a git repository: %s", r.Dir)
			}
		}

		mod, err := r.ensureIgnore()
		if err != nil {
			return fmt.Errorf("failed to ensure .gitignore: %w", err)
		}

		if mod && wasNewRepo {
			// A fresh repo starts with the ignore rules committed.
			if err := r.git.Add(".gitignore"); err != nil {
				return fmt.Errorf("failed to add .gitignore: %w", err)
			}
			if err := r.git.Commit(fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
				return fmt.Errorf("failed to commit .gitignore: %w", err)
			}
		}
	}

	return nil
}

func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Dir, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", git.LockFileName}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}

	for _, entry := range missing {
		if _, err := f.WriteString(entry + "\n"); err != nil {
			return false, err
		}
	}

	return true, nil
}

// Sync reconciles the content directory with its git remote.
func (r *Repository) Sync(ctx context.Context) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if r.config.Gitless {
		return fmt.Errorf("cannot sync in gitless mode")
	}
	if !r.git.IsRepo() {
		return fmt.Errorf("path is not a git repository: %s", r.Dir)
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	return r.git.Sync()
}

// Save persists a post and, when versioning is enabled, commits it.
//
// Workflow:
//  1. Resolve the target file from the slug (extension strategy).
//  2. Normalize the front-matter dialect for new posts.
//  3. Serialize and write atomically.
//  4. git add + commit with the change reason from ctx.
func (r *Repository) Save(ctx context.Context, p core.Post) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if p.Slug == "" {
		return core.ErrEmptySlug
	}

	filename, ser := r.resolveFile(p.Slug)

	if p.Format == core.FormatNone && len(p.Metadata) > 0 {
		p.Format = r.config.DefaultFormat
	}

	fullPath := filepath.Join(r.Dir, filename)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := ser.Serialize(p)
	if err != nil {
		return fmt.Errorf("failed to serialize post: %w", err)
	}

	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	r.noteSelfWrite(filename, data)

	// Keep the index current so a reconcile right after this save sees
	// nothing to report.
	if info, err := os.Stat(fullPath); err == nil {
		r.cache.Set(filepath.ToSlash(filename), &indexEntry{
			Slug:         p.Slug,
			Title:        p.Metadata.Title(),
			Category:     p.Metadata.Category(),
			Keywords:     p.Metadata.Keywords(),
			LastModified: info.ModTime(),
		})
		if err := r.cache.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to persist post index", "error", err)
		}
	}

	if !r.config.Gitless {
		unlock, err := r.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()

		if err := r.git.Add(filename); err != nil {
			return fmt.Errorf("failed to git add: %w", err)
		}

		msg := "update " + p.Slug
		if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
			msg = val
		}

		if err := r.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	return nil
}

// Get retrieves a post. Slugs without an extension resolve to ".md" first,
// then fall back to the other registered extensions.
func (r *Repository) Get(ctx context.Context, slug string) (core.Post, error) {
	if slug == "" {
		return core.Post{}, core.ErrEmptySlug
	}

	filename, ser := r.resolveFile(slug)
	fullPath := filepath.Join(r.Dir, filename)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) && filepath.Ext(slug) == "" {
			if alt, altSer, ok := r.altFile(slug); ok {
				if af, aerr := os.Open(filepath.Join(r.Dir, alt)); aerr == nil {
					f, ser, err = af, altSer, nil
				}
			}
		}
		if err != nil {
			if os.IsNotExist(err) {
				return core.Post{}, fmt.Errorf("%w: %s", core.ErrNotFound, slug)
			}
			return core.Post{}, err
		}
	}
	defer f.Close()

	p, err := ser.Parse(f)
	if err != nil {
		return core.Post{}, fmt.Errorf("failed to parse post %s: %w", slug, err)
	}
	p.Slug = slug

	return *p, nil
}

// List scans the content directory for all posts.
//
// Strategy:
//  1. Load the metadata index from disk.
//  2. Walk the tree (skipping .git and the system dir), collecting files.
//  3. Serve mtime-fresh entries from the index; parse the misses with a
//     bounded worker group.
//  4. Prune vanished files and save the index back.
func (r *Repository) List(ctx context.Context) ([]core.Post, error) {
	if err := r.cache.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("post index unreadable, rebuilding", "error", err)
	}

	type fileRef struct {
		relPath string
		slug    string
		mtime   time.Time
	}
	var posts []core.Post
	var misses []fileRef
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == r.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(d.Name())
		if _, ok := r.serializerFor(ext); !ok {
			return nil
		}

		relPath, err := filepath.Rel(r.Dir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()
		seen[relPath] = true

		slug := relPath
		if ext == ".md" {
			slug = strings.TrimSuffix(relPath, ext)
		}

		if entry, hit := r.cache.Get(relPath, mtime); hit {
			meta := core.Metadata{core.KeyTitle: entry.Title}
			if entry.Category != "" {
				meta[core.KeyCategory] = entry.Category
			}
			if len(entry.Keywords) > 0 {
				meta[core.KeyKeywords] = entry.Keywords
			}
			posts = append(posts, core.Post{Slug: entry.Slug, Metadata: meta})
			return nil
		}

		misses = append(misses, fileRef{relPath: relPath, slug: slug, mtime: mtime})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(misses) > 0 {
		var pmu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))

		for _, ref := range misses {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				p, err := r.Get(gctx, ref.slug)
				if err != nil {
					return nil // Skip unparseable files
				}
				r.cache.Set(ref.relPath, &indexEntry{
					Slug:         p.Slug,
					Title:        p.Metadata.Title(),
					Category:     p.Metadata.Category(),
					Keywords:     p.Metadata.Keywords(),
					LastModified: ref.mtime,
				})
				pmu.Lock()
				posts = append(posts, p)
				pmu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	r.cache.Prune(seen)
	// Read-only mode keeps the refreshed index in memory only.
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save post index", "error", err)
		}
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug < posts[j].Slug })
	return posts, nil
}

// Delete removes a post's file. With versioning enabled the removal is
// committed, using the change reason from ctx when present.
func (r *Repository) Delete(ctx context.Context, slug string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if slug == "" {
		return core.ErrEmptySlug
	}

	filename, _ := r.resolveFile(slug)
	fullPath := filepath.Join(r.Dir, filename)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		found := false
		if filepath.Ext(slug) == "" {
			if alt, _, ok := r.altFile(slug); ok {
				filename = alt
				fullPath = filepath.Join(r.Dir, filename)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", core.ErrNotFound, slug)
		}
	}

	if r.config.Gitless {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		r.forgetSelfWrite(filename)
		r.dropIndexEntry(filename)
		return nil
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Rm(filename); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}

	msg := "delete " + slug
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := r.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	r.forgetSelfWrite(filename)
	r.dropIndexEntry(filename)

	return nil
}

func (r *Repository) dropIndexEntry(filename string) {
	r.cache.Delete(filepath.ToSlash(filename))
	if err := r.cache.Save(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to persist post index", "error", err)
	}
}

// resolveFile maps a slug to its backing file and serializer. Slugs may
// name a registered extension explicitly; anything else gets ".md".
func (r *Repository) resolveFile(slug string) (string, Serializer) {
	if ext := filepath.Ext(slug); ext != "" {
		if s, ok := r.serializerFor(ext); ok {
			return slug, s
		}
	}
	s, _ := r.serializerFor(".md")
	return slug + ".md", s
}

func (r *Repository) altFile(slug string) (string, Serializer, bool) {
	for _, ext := range r.serializerExts() {
		if ext == ".md" {
			continue
		}
		candidate := slug + ext
		if _, err := os.Stat(filepath.Join(r.Dir, candidate)); err == nil {
			s, _ := r.serializerFor(ext)
			return candidate, s, true
		}
	}
	return "", nil, false
}

// slugFor maps a relative file path to the slug Get expects, or false when
// the path is not a post file.
func (r *Repository) slugFor(relPath string) (string, bool) {
	relPath = filepath.ToSlash(relPath)
	ext := filepath.Ext(relPath)
	if _, ok := r.serializerFor(ext); !ok {
		return "", false
	}
	if ext == ".md" {
		return strings.TrimSuffix(relPath, ext), true
	}
	return relPath, true
}

// IsGitInstalled reports whether git is available on PATH.
func IsGitInstalled() bool {
	return git.IsInstalled()
}
