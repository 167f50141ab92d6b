package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNotFound is returned when no post exists for the requested slug.
	ErrNotFound = errors.New("post not found")

	// ErrReadOnly is returned by mutating operations on a read-only repository.
	ErrReadOnly = errors.New("repository is in read-only mode")

	// ErrEmptySlug is returned when an operation is invoked without a slug.
	ErrEmptySlug = errors.New("post slug cannot be empty")
)

// MalformedMetadataError reports front-matter that parsed but violates the
// metadata contract, such as a missing required field.
type MalformedMetadataError struct {
	Field  string
	Reason string
}

func (e *MalformedMetadataError) Error() string {
	return fmt.Sprintf("malformed metadata: field %q %s", e.Field, e.Reason)
}

// UnterminatedFenceError reports a fenced code block that was opened but
// never closed before the end of the body.
type UnterminatedFenceError struct {
	Line  int    // 1-based line of the opening fence
	Fence string // the opening fence run, e.g. "```"
}

func (e *UnterminatedFenceError) Error() string {
	return fmt.Sprintf("unterminated code fence %q opened at line %d", e.Fence, e.Line)
}
