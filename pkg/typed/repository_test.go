package typed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vellumkit/vellum/pkg/adapters/fs"
	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/typed"
)

func setupRepo(t *testing.T) core.Repository {
	t.Helper()

	repo := fs.NewRepository(fs.Config{
		Dir:     t.TempDir(),
		Gitless: true,
	})
	if err := repo.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize repository: %v", err)
	}
	return repo
}

func TestTypedRepositoryRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	posts := typed.NewRepository[typed.PostMeta](repo)

	post := &typed.PostModel[typed.PostMeta]{
		Slug: "macros",
		Body: "Quote and unquote, explained.\n",
		Meta: typed.PostMeta{
			Layout:   "post",
			Title:    "Macros",
			Keywords: []string{"elixir", "macros"},
			Category: "metaprogramming",
			Comments: true,
		},
	}

	if err := posts.Save(ctx, post); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := posts.Get(ctx, "macros")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Meta.Title != "Macros" {
		t.Errorf("title mismatch: got %q", got.Meta.Title)
	}
	if got.Meta.Category != "metaprogramming" {
		t.Errorf("category mismatch: got %q", got.Meta.Category)
	}
	if len(got.Meta.Keywords) != 2 {
		t.Errorf("keywords mismatch: got %v", got.Meta.Keywords)
	}
	if !got.Meta.Comments {
		t.Error("comments flag lost")
	}
	if got.Body != post.Body {
		t.Errorf("body mismatch: got %q", got.Body)
	}
}

func TestTypedRepositoryCustomMeta(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	type seriesMeta struct {
		Title  string `json:"title"`
		Series string `json:"series"`
		Part   int    `json:"part"`
	}

	posts := typed.NewRepository[seriesMeta](repo)

	for i, slug := range []string{"part-one", "part-two"} {
		p := &typed.PostModel[seriesMeta]{
			Slug: slug,
			Body: "content\n",
			Meta: seriesMeta{Title: slug, Series: "macros", Part: i + 1},
		}
		if err := posts.Save(ctx, p); err != nil {
			t.Fatalf("Save %s failed: %v", slug, err)
		}
	}

	list, err := posts.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(list))
	}
	for _, p := range list {
		if p.Meta.Series != "macros" {
			t.Errorf("series mismatch for %s: %q", p.Slug, p.Meta.Series)
		}
	}
}

func TestTypedRepositoryActiveRecord(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	posts := typed.NewRepository[typed.PostMeta](repo)

	p := &typed.PostModel[typed.PostMeta]{
		Slug: "draft",
		Body: "v1\n",
		Meta: typed.PostMeta{Title: "Draft"},
	}
	if err := posts.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := posts.Get(ctx, "draft")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// A loaded post carries its saver and can save itself.
	loaded.Body = "v2\n"
	if err := loaded.Save(ctx); err != nil {
		t.Fatalf("active-record Save failed: %v", err)
	}

	again, err := posts.Get(ctx, "draft")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.Body != "v2\n" {
		t.Errorf("body not updated: got %q", again.Body)
	}

	detached := &typed.PostModel[typed.PostMeta]{Slug: "detached"}
	if err := detached.Save(ctx); err == nil {
		t.Error("Save on a detached post should fail")
	}
}

func TestTypedRepositoryDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	posts := typed.NewRepository[typed.PostMeta](repo)

	p := &typed.PostModel[typed.PostMeta]{Slug: "gone", Body: "x\n", Meta: typed.PostMeta{Title: "Gone"}}
	if err := posts.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := posts.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := posts.Get(ctx, "gone"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
