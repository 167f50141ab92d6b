package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vellumkit/vellum/pkg/adapters/fs"
	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/git"
)

// setupRepo creates an initialized repository in a temp dir. Gitless by
// default; tests that need versioning override the config.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	contentDir := filepath.Join(t.TempDir(), "content")

	cfg := fs.Config{
		Dir:       contentDir,
		AutoInit:  true,
		Gitless:   true,
		MustExist: false,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.Gitless {
		// Commits need an identity; configure one before Initialize runs.
		if err := os.MkdirAll(contentDir, 0755); err != nil {
			t.Fatalf("failed to create content dir: %v", err)
		}
		client := git.NewClient(contentDir, nil)
		if err := client.Init(); err != nil {
			t.Fatalf("git init failed: %v", err)
		}
		if _, err := client.Run("config", "user.email", "vellum@test.local"); err != nil {
			t.Fatalf("git config failed: %v", err)
		}
		if _, err := client.Run("config", "user.name", "vellum-test"); err != nil {
			t.Fatalf("git config failed: %v", err)
		}
	}

	repo := fs.NewRepository(cfg)
	if err := repo.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize repository: %v", err)
	}
	return repo, contentDir
}

func TestRepositorySaveGet(t *testing.T) {
	repo, contentDir := setupRepo(t)
	ctx := context.Background()

	post := core.Post{
		Slug: "macros",
		Body: "Quote and unquote are the heart of the story.\n",
		Metadata: core.Metadata{
			"title":    "Macros",
			"category": "metaprogramming",
			"keywords": []any{"elixir", "macros"},
			"comments": true,
		},
	}

	if err := repo.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(contentDir, "macros.md")); err != nil {
		t.Fatalf("expected macros.md on disk: %v", err)
	}

	got, err := repo.Get(ctx, "macros")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Body != post.Body {
		t.Errorf("body mismatch: got %q, want %q", got.Body, post.Body)
	}
	if got.Metadata.Title() != "Macros" {
		t.Errorf("title mismatch: got %q", got.Metadata.Title())
	}
	if got.Metadata.Category() != "metaprogramming" {
		t.Errorf("category mismatch: got %q", got.Metadata.Category())
	}
	if got.Format != core.FormatYAML {
		t.Errorf("expected default yaml format, got %q", got.Format)
	}
}

func TestRepositoryGetNotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Get(context.Background(), "does-not-exist")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryNestedSlug(t *testing.T) {
	repo, contentDir := setupRepo(t)
	ctx := context.Background()

	post := core.Post{
		Slug:     "drafts/2011/quote-and-unquote",
		Body:     "draft body\n",
		Metadata: core.Metadata{"title": "Quote and Unquote"},
	}
	if err := repo.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(contentDir, "drafts", "2011", "quote-and-unquote.md")); err != nil {
		t.Fatalf("expected nested file on disk: %v", err)
	}

	got, err := repo.Get(ctx, "drafts/2011/quote-and-unquote")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Metadata.Title() != "Quote and Unquote" {
		t.Errorf("title mismatch: got %q", got.Metadata.Title())
	}
}

func TestRepositoryMarkdownExtensionFallback(t *testing.T) {
	repo, contentDir := setupRepo(t)

	content := "---\ntitle: Legacy\n---\nlegacy body\n"
	if err := os.WriteFile(filepath.Join(contentDir, "legacy.markdown"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := repo.Get(context.Background(), "legacy")
	if err != nil {
		t.Fatalf("Get should fall back to .markdown: %v", err)
	}
	if got.Metadata.Title() != "Legacy" {
		t.Errorf("title mismatch: got %q", got.Metadata.Title())
	}
}

func TestRepositoryList(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	slugs := []string{"alpha", "beta", "drafts/gamma"}
	for _, slug := range slugs {
		post := core.Post{
			Slug:     slug,
			Body:     "body of " + slug + "\n",
			Metadata: core.Metadata{"title": strings.ToUpper(slug)},
		}
		if err := repo.Save(ctx, post); err != nil {
			t.Fatalf("Save %s failed: %v", slug, err)
		}
	}

	posts, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(posts) != len(slugs) {
		t.Fatalf("expected %d posts, got %d", len(slugs), len(posts))
	}
	// List returns slug-sorted results.
	for i := 1; i < len(posts); i++ {
		if posts[i-1].Slug > posts[i].Slug {
			t.Errorf("posts not sorted: %q before %q", posts[i-1].Slug, posts[i].Slug)
		}
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo, contentDir := setupRepo(t)
	ctx := context.Background()

	post := core.Post{Slug: "ephemeral", Body: "gone soon\n", Metadata: core.Metadata{"title": "Ephemeral"}}
	if err := repo.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := repo.Delete(ctx, "ephemeral"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(contentDir, "ephemeral.md")); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err = %v", err)
	}

	if err := repo.Delete(ctx, "ephemeral"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleting twice should be ErrNotFound, got %v", err)
	}
}

func TestRepositoryReadOnly(t *testing.T) {
	repo, contentDir := setupRepo(t, func(c *fs.Config) { c.ReadOnly = true })
	ctx := context.Background()

	content := "---\ntitle: Frozen\n---\nread only\n"
	if err := os.WriteFile(filepath.Join(contentDir, "frozen.md"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	t.Run("reads allowed", func(t *testing.T) {
		if _, err := repo.Get(ctx, "frozen"); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	})

	t.Run("writes rejected", func(t *testing.T) {
		err := repo.Save(ctx, core.Post{Slug: "frozen", Metadata: core.Metadata{"title": "x"}})
		if !errors.Is(err, core.ErrReadOnly) {
			t.Errorf("Save: expected ErrReadOnly, got %v", err)
		}
		if err := repo.Delete(ctx, "frozen"); !errors.Is(err, core.ErrReadOnly) {
			t.Errorf("Delete: expected ErrReadOnly, got %v", err)
		}
		if err := repo.Sync(ctx); !errors.Is(err, core.ErrReadOnly) {
			t.Errorf("Sync: expected ErrReadOnly, got %v", err)
		}
		if _, err := repo.Begin(ctx); !errors.Is(err, core.ErrReadOnly) {
			t.Errorf("Begin: expected ErrReadOnly, got %v", err)
		}
	})
}

func TestRepositoryMustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	repo := fs.NewRepository(fs.Config{Dir: missing, Gitless: true, MustExist: true})

	if err := repo.Initialize(context.Background()); err == nil {
		t.Fatal("expected Initialize to fail for a missing directory")
	}
}

func TestRepositoryVersionedSave(t *testing.T) {
	if !fs.IsGitInstalled() {
		t.Skip("git not installed")
	}

	repo, contentDir := setupRepo(t, func(c *fs.Config) { c.Gitless = false })
	ctx := context.Background()

	client := git.NewClient(contentDir, nil)

	post := core.Post{Slug: "versioned", Body: "tracked\n", Metadata: core.Metadata{"title": "Versioned"}}
	ctx = context.WithValue(ctx, core.ChangeReasonKey, "docs(post): add versioned")
	if err := repo.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := client.Run("log", "--oneline", "-1")
	if err != nil {
		t.Fatalf("git log failed: %v", err)
	}
	if !strings.Contains(out, "add versioned") {
		t.Errorf("commit message should carry the change reason, got %q", out)
	}

	t.Run("gitignore covers system dir", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(contentDir, ".gitignore"))
		if err != nil {
			t.Fatalf("failed to read .gitignore: %v", err)
		}
		if !strings.Contains(string(data), fs.DefaultSystemDir+"/") {
			t.Errorf(".gitignore should ignore %s/, got:\n%s", fs.DefaultSystemDir, data)
		}
	})
}
