package fs

import (
	"io"

	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/matter"
)

// Serializer defines how to read and write a specific file format.
type Serializer interface {
	// Parse reads a content file and returns a Post (slug left empty).
	Parse(r io.Reader) (*core.Post, error)
	// Serialize converts the Post to file bytes.
	Serialize(p core.Post) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers, keyed by
// file extension.
func DefaultSerializers(strict bool) map[string]Serializer {
	md := NewMarkdownSerializer(strict)
	return map[string]Serializer{
		".md":       md,
		".markdown": md,
	}
}

// MarkdownSerializer handles markdown files with a front-matter block.
type MarkdownSerializer struct {
	codec *matter.Codec
}

// NewMarkdownSerializer creates a markdown serializer. Strict mode keeps
// large metadata integers precise across round trips.
func NewMarkdownSerializer(strict bool) *MarkdownSerializer {
	return &MarkdownSerializer{codec: matter.NewCodec(strict)}
}

func (s *MarkdownSerializer) Parse(r io.Reader) (*core.Post, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return s.codec.Parse(data)
}

func (s *MarkdownSerializer) Serialize(p core.Post) ([]byte, error) {
	return s.codec.Encode(p)
}
