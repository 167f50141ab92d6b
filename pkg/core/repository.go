package core

import "context"

// Repository defines the contract for storing and retrieving posts.
// Adhering to this interface keeps the core independent of the underlying
// storage mechanism (filesystem, git, SQL, object store).
type Repository interface {
	// Save persists a post, creating or overwriting as needed.
	Save(ctx context.Context, p Post) error

	// Get retrieves a post by its slug.
	Get(ctx context.Context, slug string) (Post, error)

	// List returns all available posts.
	List(ctx context.Context) ([]Post, error)

	// Delete removes a post by its slug.
	Delete(ctx context.Context, slug string) error

	// Initialize ensures the underlying storage is ready (directories
	// created, versioning initialized).
	Initialize(ctx context.Context) error
}

// Syncable marks repositories that can synchronize with a remote.
type Syncable interface {
	// Sync reconciles local state with the remote (e.g. git pull/push).
	Sync(ctx context.Context) error
}

// Watchable marks repositories that can emit change events.
type Watchable interface {
	// Watch emits an event for every post matching pattern that changes,
	// until ctx is cancelled. The pattern uses doublestar glob syntax.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Reconciler marks repositories that can diff their cached view against
// the underlying storage, reporting changes made while no watcher ran.
type Reconciler interface {
	// Reconcile compares storage with the cached index and returns one
	// event per divergence (CREATE, MODIFY, DELETE).
	Reconcile(ctx context.Context) ([]Event, error)
}

// Transaction defines the contract for a unit of work. Staged changes are
// invisible to other readers until Commit.
type Transaction interface {
	// Save stages a post for persistence.
	Save(ctx context.Context, p Post) error

	// Get retrieves a post, preferring the staged version when present.
	Get(ctx context.Context, slug string) (Post, error)

	// List returns all posts, staged changes included.
	List(ctx context.Context) ([]Post, error)

	// Delete stages a post for removal.
	Delete(ctx context.Context, slug string) error

	// Commit applies all staged changes atomically.
	Commit(ctx context.Context, changeReason string) error

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// Transactional marks repositories that support transactions.
type Transactional interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}
