package platform

import (
	"log/slog"

	"github.com/vellumkit/vellum/pkg/core"
)

// options holds the internal configuration assembled from Option values.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	adapter     string
	config      map[string]any
	serializers map[string]any
}

// Option defines a functional option for configuring a vellum site.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:     "fs",
		config:      make(map[string]any),
		serializers: make(map[string]any),
	}
}

// WithSerializer registers a custom serializer for a file extension. The
// value must implement the adapter's Serializer interface (e.g.
// fs.Serializer); validation happens during Init.
func WithSerializer(ext string, s any) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}

// WithAutoInit enables automatic setup of the content directory (mkdir and
// git init).
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning enables or disables git versioning. Enabled by default;
// passing false runs the site gitless.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["gitless"] = !enabled
	}
}

// WithForceTemp forces the site into a temporary directory (useful for
// experiments and tests).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist requires the content directory to already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom storage adapter, skipping the default
// filesystem adapter entirely.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir overrides the hidden system directory name. Defaults to
// ".vellum".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithDefaultFormat sets the front-matter dialect used for posts that do
// not declare one. Defaults to YAML.
func WithDefaultFormat(format core.Format) Option {
	return func(o *options) {
		o.config["default_format"] = format
	}
}

// WithEventBuffer sets the capacity of Watch event channels.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithStrict enables strict mode for the default serializers: metadata
// numbers are parsed as json.Number so large integers keep their
// precision across round trips.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.config["strict"] = strict
	}
}

// WithWatcherErrorHandler registers a callback for asynchronous errors
// from the Watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode: Save, Delete, and Sync return
// ErrReadOnly, initialization skips mkdir and git init, and the dev
// sandbox is bypassed since reads cannot damage the site.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox applied under `go run` and `go test`.
// By default the site is re-rooted into a temp directory to protect real
// content from development accidents; pass false to operate on the real
// path anyway.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
