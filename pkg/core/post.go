// Package core holds the domain model of vellum: posts, their metadata,
// and the contracts storage adapters must fulfill.
package core

import (
	"strconv"
	"strings"
)

// Metadata represents the flexible key-value pairs declared in a post's
// front-matter block.
type Metadata map[string]any

// Well-known front-matter keys.
const (
	KeyLayout   = "layout"
	KeyTitle    = "title"
	KeyKeywords = "keywords"
	KeyCategory = "category"
	KeyComments = "comments"
)

// Format identifies the front-matter dialect a post file was authored in.
// It is recorded on read so that writes can re-emit the same dialect.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Post is the central entity of the domain. It represents a single content
// file identified by a slug, carrying front-matter metadata and a markdown
// body. It is agnostic to where the file lives.
type Post struct {
	Slug     string
	Body     string
	Metadata Metadata
	Format   Format
}

// Title returns the post title, or "" when absent or not a string.
func (m Metadata) Title() string {
	return m.stringKey(KeyTitle)
}

// Layout returns the rendering layout declared for the post.
func (m Metadata) Layout() string {
	return m.stringKey(KeyLayout)
}

// Category returns the category the post is filed under.
func (m Metadata) Category() string {
	return m.stringKey(KeyCategory)
}

// Keywords returns the keyword set declared in the front-matter.
// List values are used as-is; a scalar value is split on commas.
// Duplicates are dropped, preserving first occurrence.
func (m Metadata) Keywords() []string {
	raw, ok := m[KeyKeywords]
	if !ok {
		return nil
	}

	var items []string
	switch v := raw.(type) {
	case string:
		items = strings.Split(v, ",")
	case []string:
		items = v
	case []any:
		for _, el := range v {
			if s, ok := el.(string); ok {
				items = append(items, s)
			}
		}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, k := range items {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CommentsEnabled reports whether discussion is enabled for the post.
// Absent or unrecognized values default to true.
func (m Metadata) CommentsEnabled() bool {
	raw, ok := m[KeyComments]
	if !ok {
		return true
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return true
}

// Validate checks the metadata against the required-field contract.
// Every post must declare a non-blank string title.
func (m Metadata) Validate() error {
	raw, ok := m[KeyTitle]
	if !ok {
		return &MalformedMetadataError{Field: KeyTitle, Reason: "is required"}
	}
	s, isString := raw.(string)
	if !isString {
		return &MalformedMetadataError{Field: KeyTitle, Reason: "must be a string"}
	}
	if strings.TrimSpace(s) == "" {
		return &MalformedMetadataError{Field: KeyTitle, Reason: "must not be blank"}
	}
	return nil
}

func (m Metadata) stringKey(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// EventType represents the type of change observed in a content directory.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a post.
type Event struct {
	Type      EventType
	Slug      string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Slug
}

type contextKey string

// ChangeReasonKey is the context key for passing a human-readable change
// reason (commit subject) through Save/Delete operations.
const ChangeReasonKey contextKey = "change_reason"
