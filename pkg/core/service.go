package core

import (
	"context"
	"errors"
	"sync"
)

// DefaultEventBuffer is the channel capacity hint for Watch streams.
const DefaultEventBuffer = 16

// Service handles the business logic for posts.
type Service struct {
	repo Repository

	mu              sync.RWMutex
	eventBufferSize int
}

// NewService creates a new Service on top of a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, eventBufferSize: DefaultEventBuffer}
}

// SetEventBuffer overrides the capacity of the buffered channel Watch
// places between the adapter and the consumer.
func (s *Service) SetEventBuffer(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.eventBufferSize = n
	}
}

// SavePost validates and persists a post. The metadata contract is enforced
// here: a post without a usable title is rejected with a
// MalformedMetadataError before it reaches storage.
func (s *Service) SavePost(ctx context.Context, slug string, body string, metadata Metadata) error {
	if slug == "" {
		return ErrEmptySlug
	}
	if err := metadata.Validate(); err != nil {
		return err
	}

	return s.repo.Save(ctx, Post{
		Slug:     slug,
		Body:     body,
		Metadata: metadata,
	})
}

// GetPost retrieves a post by slug.
func (s *Service) GetPost(ctx context.Context, slug string) (Post, error) {
	if slug == "" {
		return Post{}, ErrEmptySlug
	}
	return s.repo.Get(ctx, slug)
}

// ListPosts retrieves all posts.
func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	return s.repo.List(ctx)
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, slug string) error {
	if slug == "" {
		return ErrEmptySlug
	}
	return s.repo.Delete(ctx, slug)
}

// WithTransaction executes fn within a transaction, committing on success
// and rolling back on error. The commit message is taken from the
// ChangeReasonKey context value when present.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return errors.New("repository does not support transactions")
	}

	tx, err := tr.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	msg := "batch update"
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	return tx.Commit(ctx, msg)
}

// Begin starts a transaction manually. Exposed for workflows that outlive
// a single function scope.
func (s *Service) Begin(ctx context.Context) (Transaction, error) {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return nil, errors.New("repository does not support transactions")
	}
	return tr.Begin(ctx)
}

// Reconcile diffs the repository's cached view against storage, emitting
// events for changes made while the service was not running.
func (s *Service) Reconcile(ctx context.Context) ([]Event, error) {
	r, ok := s.repo.(Reconciler)
	if !ok {
		return nil, errors.New("repository does not support reconciliation")
	}
	return r.Reconcile(ctx)
}

// Watch observes changes in the repository if supported. A buffered
// channel sits between the adapter and the consumer, so a slow consumer
// does not stall the adapter's event loop.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}

	upstream, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	size := s.eventBufferSize
	s.mu.RUnlock()

	out := make(chan Event, size)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-upstream:
				if !ok {
					return
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
