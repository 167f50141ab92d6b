// Package typed provides a generic, type-safe layer over the raw metadata
// map: front-matter is mapped onto a user-defined struct via its JSON tags.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vellumkit/vellum/pkg/core"
)

// PostModel wraps a post with a typed front-matter field. It is the
// generic counterpart of core.Post.
type PostModel[T any] struct {
	Slug   string
	Body   string
	Meta   T        // typed front-matter
	Format core.Format
	Saver  Saver[T] // active-record reference, attached on load
}

// Saver decouples PostModel from the concrete repository or service that
// produced it.
type Saver[T any] interface {
	Save(ctx context.Context, post *PostModel[T]) error
}

// Save persists the post through the Saver it was loaded with.
func (p *PostModel[T]) Save(ctx context.Context) error {
	if p.Saver == nil {
		return fmt.Errorf("post is detached (missing Saver)")
	}
	return p.Saver.Save(ctx, p)
}

// PostMeta is a ready-made front-matter struct covering the standard
// post attributes. Use it as the type parameter when no custom metadata
// model is needed.
type PostMeta struct {
	Layout   string   `json:"layout,omitempty"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
	Category string   `json:"category,omitempty"`
	Comments bool     `json:"comments"`
}

// Repository wraps a core.Repository with typed access.
type Repository[T any] struct {
	repo core.Repository
}

// NewRepository creates a typed wrapper around an existing repository.
func NewRepository[T any](repo core.Repository) *Repository[T] {
	return &Repository[T]{repo: repo}
}

// Save persists a typed post, converting the Meta struct to the raw
// metadata map through its JSON tags.
func (r *Repository[T]) Save(ctx context.Context, post *PostModel[T]) error {
	metadata, err := toMetadata(post.Meta)
	if err != nil {
		return err
	}

	if post.Saver == nil {
		post.Saver = r
	}

	return r.repo.Save(ctx, core.Post{
		Slug:     post.Slug,
		Body:     post.Body,
		Metadata: metadata,
		Format:   post.Format,
	})
}

// Get retrieves a post and unmarshals its front-matter into T.
func (r *Repository[T]) Get(ctx context.Context, slug string) (*PostModel[T], error) {
	p, err := r.repo.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	return fromCore(p, Saver[T](r))
}

// List returns all posts converted to the typed model.
func (r *Repository[T]) List(ctx context.Context) ([]*PostModel[T], error) {
	posts, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*PostModel[T], 0, len(posts))
	for _, p := range posts {
		model, err := fromCore(p, Saver[T](r))
		if err != nil {
			return nil, fmt.Errorf("failed to process post %s: %w", p.Slug, err)
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a post by slug.
func (r *Repository[T]) Delete(ctx context.Context, slug string) error {
	return r.repo.Delete(ctx, slug)
}

// toMetadata converts a typed struct to the raw metadata map, honoring
// JSON tags.
func toMetadata[T any](meta T) (core.Metadata, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed metadata: %w", err)
	}

	var m core.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to convert typed metadata to map: %w", err)
	}
	return m, nil
}

// fromCore builds a typed model from a raw post.
func fromCore[T any](p core.Post, saver Saver[T]) (*PostModel[T], error) {
	data, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata marshal failed: %w", err)
	}

	var meta T
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed: %w", err)
	}

	return &PostModel[T]{
		Slug:   p.Slug,
		Body:   p.Body,
		Meta:   meta,
		Format: p.Format,
		Saver:  saver,
	}, nil
}
