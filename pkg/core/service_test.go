package core_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/vellumkit/vellum/pkg/core"
)

// MockRepository implements core.Repository in memory.
// It deliberately does NOT implement core.Transactional to test fallback/errors.
type MockRepository struct {
	posts map[string]core.Post
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		posts: make(map[string]core.Post),
	}
}

func (m *MockRepository) Save(ctx context.Context, p core.Post) error {
	m.posts[p.Slug] = p
	return nil
}

func (m *MockRepository) Get(ctx context.Context, slug string) (core.Post, error) {
	p, ok := m.posts[slug]
	if !ok {
		return core.Post{}, core.ErrNotFound
	}
	return p, nil
}

func (m *MockRepository) List(ctx context.Context) ([]core.Post, error) {
	var posts []core.Post
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	// Sort for deterministic tests
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Slug < posts[j].Slug
	})
	return posts, nil
}

func (m *MockRepository) Delete(ctx context.Context, slug string) error {
	if _, ok := m.posts[slug]; !ok {
		return core.ErrNotFound
	}
	delete(m.posts, slug)
	return nil
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

func TestService_CRUD(t *testing.T) {
	repo := NewMockRepository()
	service := core.NewService(repo)
	ctx := context.TODO()

	// 1. Save
	err := service.SavePost(ctx, "hello-world", "Some prose.", core.Metadata{"title": "Hello World"})
	if err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	// 2. Get
	p, err := service.GetPost(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if p.Body != "Some prose." {
		t.Errorf("expected body 'Some prose.', got '%s'", p.Body)
	}

	// 3. List
	_ = service.SavePost(ctx, "second", "more", core.Metadata{"title": "Second"})
	posts, err := service.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("expected 2 posts, got %d", len(posts))
	}

	// 4. Delete
	err = service.DeletePost(ctx, "hello-world")
	if err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err = service.GetPost(ctx, "hello-world"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after deletion, got %v", err)
	}
}

func TestService_Save_RequiresTitle(t *testing.T) {
	repo := NewMockRepository()
	service := core.NewService(repo)
	ctx := context.TODO()

	cases := []struct {
		name string
		meta core.Metadata
	}{
		{"nil metadata", nil},
		{"missing title", core.Metadata{"layout": "post"}},
		{"blank title", core.Metadata{"title": "   "}},
		{"non-string title", core.Metadata{"title": 42}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.SavePost(ctx, "slug", "body", tc.meta)
			var merr *core.MalformedMetadataError
			if !errors.As(err, &merr) {
				t.Fatalf("expected MalformedMetadataError, got %v", err)
			}
			if merr.Field != core.KeyTitle {
				t.Errorf("expected field %q, got %q", core.KeyTitle, merr.Field)
			}
			if len(repo.posts) != 0 {
				t.Error("invalid post must not reach the repository")
			}
		})
	}
}

func TestService_Save_EmptySlug(t *testing.T) {
	service := core.NewService(NewMockRepository())

	err := service.SavePost(context.TODO(), "", "body", core.Metadata{"title": "T"})
	if !errors.Is(err, core.ErrEmptySlug) {
		t.Fatalf("expected ErrEmptySlug, got %v", err)
	}
}

func TestService_Begin_Unsupported(t *testing.T) {
	repo := NewMockRepository()
	service := core.NewService(repo)
	ctx := context.TODO()

	err := service.WithTransaction(ctx, func(tx core.Transaction) error {
		return nil
	})

	if err == nil {
		t.Fatal("expected error for non-transactional repo")
	}
	if err.Error() != "repository does not support transactions" {
		t.Errorf("unexpected error msg: %v", err)
	}
}
