package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vellumkit/vellum/pkg/adapters/fs"
	"github.com/vellumkit/vellum/pkg/core"
)

// Init builds and initializes the repository for a content directory.
// The dir argument is adapter-specific: a filesystem path for "fs".
func Init(dir string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error

	switch o.adapter {
	case "fs":
		repo, err = initFS(dir, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}

	return repo, nil
}

// initFS assembles the filesystem adapter configuration: dev sandbox,
// gitless detection, and serializer registration.
func initFS(path string, o *options) (core.Repository, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	gitless, _ := o.config["gitless"].(bool)
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	strict, _ := o.config["strict"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	defaultFormat, _ := o.config["default_format"].(core.Format)
	eventBuffer, _ := o.config["event_buffer"].(int)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	readOnly, _ := o.config["read_only"].(bool)

	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only access cannot damage a site, so the sandbox steps aside.
	bypassSafety := readOnly || !devSafety
	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveSitePath(path, useTemp)

	if IsDevRun() && o.logger != nil {
		switch {
		case readOnly:
			o.logger.Debug("read-only mode, dev sandbox bypassed", "path", resolvedPath)
		case bypassSafety:
			o.logger.Warn("dev sandbox disabled, operating on real path", "path", resolvedPath)
		default:
			o.logger.Debug("dev sandbox active", "path", resolvedPath)
		}
	}

	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	// When versioning was not configured explicitly, detect it: an
	// existing .git means a versioned site; an existing system dir
	// without .git means the site was created gitless and stays that
	// way; a fresh directory defaults to versioned.
	if _, configured := o.config["gitless"]; !configured {
		gitPath := filepath.Join(resolvedPath, ".git")
		systemPath := filepath.Join(resolvedPath, systemDir)

		if _, err := os.Stat(gitPath); err == nil {
			gitless = false
		} else if autoInit {
			_, sysErr := os.Stat(systemPath)
			gitless = sysErr == nil
		} else {
			gitless = true
		}

		if gitless && o.logger != nil {
			o.logger.Debug("auto-detected gitless mode", "path", resolvedPath)
		}
	}

	if useTemp && o.logger != nil {
		o.logger.Warn("site re-rooted into temp directory",
			"original_path", path, "resolved_path", resolvedPath)
	}

	repo := fs.NewRepository(fs.Config{
		Dir:           resolvedPath,
		AutoInit:      autoInit,
		Gitless:       gitless,
		MustExist:     mustExist || (!autoInit && !useTemp),
		Strict:        strict,
		ReadOnly:      readOnly,
		Logger:        o.logger,
		SystemDir:     systemDir,
		DefaultFormat: defaultFormat,
		EventBuffer:   eventBuffer,
		ErrorHandler:  errorHandler,
	})

	for ext, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", ext)
		}
		repo.RegisterSerializer(ext, serializer)
	}

	return repo, nil
}

// Sync reconciles the content directory at dir with its git remote.
func Sync(dir string, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var repo core.Repository
	if o.repository != nil {
		repo = o.repository
	} else {
		var err error
		switch o.adapter {
		case "fs":
			// Syncing a site that does not exist makes no sense.
			o.config["must_exist"] = true
			repo, err = initFS(dir, o)
		default:
			return fmt.Errorf("unknown adapter: %s", o.adapter)
		}
		if err != nil {
			return err
		}
	}

	syncable, ok := repo.(core.Syncable)
	if !ok {
		return fmt.Errorf("repository does not support synchronization")
	}

	return syncable.Sync(context.Background())
}
