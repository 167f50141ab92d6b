package typed

import (
	"context"

	"github.com/vellumkit/vellum/pkg/core"
)

// Service wraps a core.Service with typed access, keeping the service's
// validation and transaction support.
type Service[T any] struct {
	svc *core.Service
}

// NewService creates a typed wrapper around an existing service.
func NewService[T any](svc *core.Service) *Service[T] {
	return &Service[T]{svc: svc}
}

// Save validates and persists a typed post.
func (s *Service[T]) Save(ctx context.Context, post *PostModel[T]) error {
	metadata, err := toMetadata(post.Meta)
	if err != nil {
		return err
	}

	if post.Saver == nil {
		post.Saver = s
	}

	return s.svc.SavePost(ctx, post.Slug, post.Body, metadata)
}

// Get retrieves a post via the service.
func (s *Service[T]) Get(ctx context.Context, slug string) (*PostModel[T], error) {
	p, err := s.svc.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	return fromCore(p, Saver[T](s))
}

// List retrieves all posts via the service.
func (s *Service[T]) List(ctx context.Context) ([]*PostModel[T], error) {
	posts, err := s.svc.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*PostModel[T], 0, len(posts))
	for _, p := range posts {
		model, err := fromCore(p, Saver[T](s))
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a post via the service.
func (s *Service[T]) Delete(ctx context.Context, slug string) error {
	return s.svc.DeletePost(ctx, slug)
}

// Watch observes post changes matching pattern.
func (s *Service[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return s.svc.Watch(ctx, pattern)
}

// WithTransaction executes fn within a typed transaction view.
func (s *Service[T]) WithTransaction(ctx context.Context, fn func(tx *Transaction[T]) error) error {
	return s.svc.WithTransaction(ctx, func(coreTx core.Transaction) error {
		return fn(&Transaction[T]{tx: coreTx})
	})
}

// Transaction wraps a core.Transaction for typed operations.
type Transaction[T any] struct {
	tx core.Transaction
}

// Save stages a typed post within the transaction.
func (t *Transaction[T]) Save(ctx context.Context, post *PostModel[T]) error {
	metadata, err := toMetadata(post.Meta)
	if err != nil {
		return err
	}
	if post.Saver == nil {
		post.Saver = t
	}

	return t.tx.Save(ctx, core.Post{
		Slug:     post.Slug,
		Body:     post.Body,
		Metadata: metadata,
		Format:   post.Format,
	})
}

// Get retrieves a post within the transaction, staged changes included.
func (t *Transaction[T]) Get(ctx context.Context, slug string) (*PostModel[T], error) {
	p, err := t.tx.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	return fromCore(p, Saver[T](t))
}

// Delete stages a removal within the transaction.
func (t *Transaction[T]) Delete(ctx context.Context, slug string) error {
	return t.tx.Delete(ctx, slug)
}
