package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vellumkit/vellum/pkg/adapters/fs"
	"github.com/vellumkit/vellum/pkg/core"
)

// The first List parses every file; later Lists serve unchanged files from
// the on-disk index without re-reading their bodies.
func TestListUsesIndexCache(t *testing.T) {
	contentDir := t.TempDir()
	repo := fs.NewRepository(fs.Config{Dir: contentDir, Gitless: true})
	ctx := context.Background()
	if err := repo.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	post := core.Post{
		Slug:     "cached",
		Body:     "a body the index never stores\n",
		Metadata: core.Metadata{"title": "Cached", "category": "meta"},
	}
	if err := repo.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("first List failed: %v", err)
	}
	if len(first) != 1 || first[0].Body == "" {
		t.Fatalf("first List should parse the full post, got %+v", first)
	}

	indexPath := filepath.Join(contentDir, fs.DefaultSystemDir, "index.json")
	if _, err := os.Stat(indexPath); err != nil {
		t.Fatalf("List should persist the index: %v", err)
	}

	second, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("second List failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 post, got %d", len(second))
	}
	got := second[0]
	if got.Body != "" {
		t.Errorf("cache hit should be metadata-only, got body %q", got.Body)
	}
	if got.Metadata.Title() != "Cached" || got.Metadata.Category() != "meta" {
		t.Errorf("cached metadata mismatch: %v", got.Metadata)
	}
}

// A corrupted index must not break List; it is rebuilt from the files.
func TestListSurvivesCorruptIndex(t *testing.T) {
	contentDir := t.TempDir()
	repo := fs.NewRepository(fs.Config{Dir: contentDir, Gitless: true})
	ctx := context.Background()
	if err := repo.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := repo.Save(ctx, core.Post{Slug: "sturdy", Body: "b\n", Metadata: core.Metadata{"title": "Sturdy"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	indexPath := filepath.Join(contentDir, fs.DefaultSystemDir, "index.json")
	if err := os.WriteFile(indexPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to corrupt index: %v", err)
	}

	// A fresh repository loads the corrupt index from disk and heals.
	fresh := fs.NewRepository(fs.Config{Dir: contentDir, Gitless: true})
	posts, err := fresh.List(ctx)
	if err != nil {
		t.Fatalf("List with corrupt index failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Metadata.Title() != "Sturdy" {
		t.Errorf("rebuilt listing wrong: %+v", posts)
	}
}
