// Package vellum is the composition root for the Vellum toolkit.
//
// It connects the core domain (posts, segments, front-matter) with the
// infrastructure adapters (filesystem storage, git versioning) using a
// hexagonal architecture.
//
// Philosophy:
//
// Vellum treats a directory of blog posts as a transactional database.
// Each post is a plain text file: front-matter metadata up top, then a
// body that may interleave prose with fenced code blocks. The default
// adapter stores posts on the local filesystem with git versioning, but
// the core is storage-agnostic.
//
// Features:
//
//   - **Front-matter dialects**: YAML, TOML, and JSON metadata, with the
//     dialect preserved across read/write round-trips.
//   - **Segmented bodies**: fenced code blocks are parsed into typed
//     segments without losing a byte of the original text.
//   - **Transactional Safe**: atomic multi-post operations.
//   - **Typed Retrieval**: generic wrapper (`NewTyped[T]`) for type-safe
//     front-matter access.
//   - **Default Adapter (FS + Git)**: local Markdown files with semantic
//     git commits out of the box.
//   - **Reactivity**: watch a site for changes with glob patterns.
//
// Usage:
//
//	// Initialize service with functional options
//	svc, err := vellum.New("./content",
//		vellum.WithAutoInit(true),
//		vellum.WithLogger(logger),
//	)
//
//	// Save a post
//	err := svc.SavePost(ctx, "hello-world", "content", nil)
package vellum
