package vellum

import (
	"log/slog"

	"github.com/vellumkit/vellum/internal/platform"
	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/git"
	"github.com/vellumkit/vellum/pkg/typed"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Configuration ---

// Option defines a functional option for configuring Vellum.
type Option = platform.Option

// WithAutoInit enables automatic initialization of the site (creates directory and git init).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables version control (e.g. Git).
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the content directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter allows specifying the storage adapter to use by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".vellum").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithSerializer registers a custom serializer for a file extension. The
// value must implement fs.Serializer; validation happens during Init.
func WithSerializer(ext string, s any) Option {
	return platform.WithSerializer(ext, s)
}

// WithDefaultFormat sets the front-matter dialect used for new posts.
func WithDefaultFormat(format core.Format) Option {
	return platform.WithDefaultFormat(format)
}

// WithEventBuffer allows specifying the size of the event broker buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithStrict enables strict metadata decoding (numbers kept as json.Number).
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithWatcherErrorHandler sets the callback for asynchronous watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithReadOnly opens the site in read-only mode. Writes fail with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the temp-dir sandbox applied under `go run` / `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New creates a new Vellum Service for the content directory at path.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// --- Typed Factories ---

// NewTypedRepository creates a type-safe wrapper around an existing repository.
func NewTypedRepository[T any](repo core.Repository) *typed.Repository[T] {
	return typed.NewRepository[T](repo)
}

// NewTypedService creates a type-safe wrapper around an existing service.
func NewTypedService[T any](svc *core.Service) *typed.Service[T] {
	return typed.NewService[T](svc)
}

// OpenTypedRepository simplifies creating a TypedRepository from a path.
func OpenTypedRepository[T any](path string, opts ...Option) (*typed.Repository[T], error) {
	repo, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewRepository[T](repo), nil
}

// OpenTypedService simplifies creating a TypedService from a path.
func OpenTypedService[T any](path string, opts ...Option) (*typed.Service[T], error) {
	svc, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewService[T](svc), nil
}

// --- Operations ---

// Sync performs a synchronization (pull/push) of the site.
func Sync(path string, opts ...Option) error {
	return platform.Sync(path, opts...)
}

// --- Safety & Utils ---

// ResolveSitePath determines the actual path for the site based on safety rules.
func ResolveSitePath(userPath string, forceTemp bool) string {
	return platform.ResolveSitePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindSiteRoot recursively looks upwards for a site root indicator.
func FindSiteRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Semantic Commits ---

const (
	CommitTypeFeat     = git.CommitTypeFeat
	CommitTypeFix      = git.CommitTypeFix
	CommitTypeDocs     = git.CommitTypeDocs
	CommitTypeStyle    = git.CommitTypeStyle
	CommitTypeRefactor = git.CommitTypeRefactor
	CommitTypePerf     = git.CommitTypePerf
	CommitTypeTest     = git.CommitTypeTest
	CommitTypeChore    = git.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return git.FormatCommitMessage(ctype, scope, subject, body)
}

// AppendFooter appends the Vellum footer to an arbitrary message.
func AppendFooter(msg string) string {
	return git.AppendFooter(msg)
}
