// Package matter reads and writes the front-matter block of content files.
//
// Three dialects are supported, detected from the opening bytes of a file:
// YAML between "---" lines, TOML between "+++" lines, and a leading JSON
// object. The body after the block is carried verbatim: parsing and
// re-encoding never rewrites it.
package matter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vellumkit/vellum/pkg/core"
)

const (
	yamlDelimiter = "---"
	tomlDelimiter = "+++"
)

// ErrUnterminated is returned when a front-matter block opens but its
// closing delimiter never appears.
var ErrUnterminated = errors.New("front-matter opened but no closing delimiter found")

// Codec parses and encodes content files.
type Codec struct {
	// Strict normalizes metadata numbers to json.Number so large integers
	// survive round trips without precision loss.
	Strict bool
}

// NewCodec creates a codec. Strict mode prevents float64 conversion of
// large integers.
func NewCodec(strict bool) *Codec {
	return &Codec{Strict: strict}
}

var defaultCodec = &Codec{}

// Parse reads a content file with the default codec.
func Parse(data []byte) (*core.Post, error) {
	return defaultCodec.Parse(data)
}

// Encode writes a post with the default codec.
func Encode(p core.Post) ([]byte, error) {
	return defaultCodec.Encode(p)
}

// Detect reports the front-matter dialect the opening bytes declare.
// FormatNone means the file is body-only.
func Detect(data []byte) core.Format {
	switch {
	case opensWith(data, yamlDelimiter):
		return core.FormatYAML
	case opensWith(data, tomlDelimiter):
		return core.FormatTOML
	case bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("{")):
		return core.FormatJSON
	}
	return core.FormatNone
}

// Parse splits a content file into metadata and body. Files that open with
// a front-matter delimiter must carry a well-formed, terminated block;
// anything else is returned as a body-only post. The body is the exact
// byte range after the closing delimiter line.
func (c *Codec) Parse(data []byte) (*core.Post, error) {
	switch {
	case opensWith(data, yamlDelimiter):
		return c.parseDelimited(data, yamlDelimiter, core.FormatYAML)
	case opensWith(data, tomlDelimiter):
		return c.parseDelimited(data, tomlDelimiter, core.FormatTOML)
	}

	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("{")) {
		if p, err := c.parseJSON(data); err == nil {
			return p, nil
		}
		// A brace that does not open a metadata object is ordinary prose.
	}

	return &core.Post{Body: string(data), Metadata: make(core.Metadata), Format: core.FormatNone}, nil
}

func (c *Codec) parseDelimited(data []byte, delim string, format core.Format) (*core.Post, error) {
	// The block starts after the opening delimiter line.
	_, blockStart := lineAt(data, 0)

	blockEnd, bodyStart := -1, -1
	for i := blockStart; i < len(data); {
		end, next := lineAt(data, i)
		if isDelimiterLine(data[i:end], delim) {
			blockEnd = i
			bodyStart = next
			break
		}
		i = next
	}
	if blockEnd < 0 {
		return nil, ErrUnterminated
	}

	meta := make(core.Metadata)
	block := data[blockStart:blockEnd]
	var err error
	switch format {
	case core.FormatTOML:
		err = toml.Unmarshal(block, (*map[string]any)(&meta))
	default:
		err = yaml.Unmarshal(block, &meta)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s front-matter: %w", format, err)
	}

	meta = sanitize(meta)
	if c.Strict {
		meta = normalizeNumbers(meta).(core.Metadata)
	}

	return &core.Post{Metadata: meta, Body: string(data[bodyStart:]), Format: format}, nil
}

func (c *Codec) parseJSON(data []byte) (*core.Post, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.Strict {
		dec.UseNumber()
	}

	meta := make(core.Metadata)
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("invalid json front-matter: %w", err)
	}

	// One newline after the object is framing, not body: Encode always
	// writes the separator back, so the body round-trips exactly.
	body := data[dec.InputOffset():]
	if bytes.HasPrefix(body, []byte("\r\n")) {
		body = body[2:]
	} else if bytes.HasPrefix(body, []byte("\n")) {
		body = body[1:]
	}

	return &core.Post{
		Metadata: sanitize(meta),
		Body:     string(body),
		Format:   core.FormatJSON,
	}, nil
}

// Encode emits a post in its front-matter dialect. Posts without metadata
// are written body-only; FormatNone defaults to YAML when metadata is
// present. The body is appended untouched; JSON posts get one newline
// between the object and the body, the same separator Parse consumes.
func (c *Codec) Encode(p core.Post) ([]byte, error) {
	meta := sanitize(p.Metadata)
	if len(meta) == 0 {
		return []byte(p.Body), nil
	}

	var buf bytes.Buffer
	switch p.Format {
	case core.FormatTOML:
		buf.WriteString(tomlDelimiter + "\n")
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(lowerNumbers(meta)); err != nil {
			return nil, fmt.Errorf("encoding toml front-matter: %w", err)
		}
		buf.WriteString(tomlDelimiter + "\n")
	case core.FormatJSON:
		b, err := json.MarshalIndent(map[string]any(meta), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json front-matter: %w", err)
		}
		buf.Write(b)
		// The separator newline Parse strips off the body.
		buf.WriteByte('\n')
	default:
		buf.WriteString(yamlDelimiter + "\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(lowerNumbers(meta)); err != nil {
			return nil, fmt.Errorf("encoding yaml front-matter: %w", err)
		}
		enc.Close()
		buf.WriteString(yamlDelimiter + "\n")
	}

	buf.WriteString(p.Body)
	return buf.Bytes(), nil
}

func opensWith(data []byte, delim string) bool {
	if !bytes.HasPrefix(data, []byte(delim)) {
		return false
	}
	rest := data[len(delim):]
	if len(rest) == 0 {
		return false
	}
	if rest[0] == '\n' {
		return true
	}
	return len(rest) > 1 && rest[0] == '\r' && rest[1] == '\n'
}

func isDelimiterLine(line []byte, delim string) bool {
	return string(bytes.TrimSuffix(line, []byte("\r"))) == delim
}

// lineAt returns the end of the line starting at start (exclusive of the
// newline) and the start of the following line.
func lineAt(data []byte, start int) (end, next int) {
	if nl := bytes.IndexByte(data[start:], '\n'); nl >= 0 {
		end = start + nl
		return end, end + 1
	}
	return len(data), len(data)
}

// sanitize normalizes decoder output so metadata is always built from
// map[string]any, whatever the dialect produced.
func sanitize(m core.Metadata) core.Metadata {
	if m == nil {
		return make(core.Metadata)
	}
	out := make(core.Metadata, len(m))
	for k, v := range m {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = sanitizeValue(inner)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[fmt.Sprint(k)] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = sanitizeValue(t[i])
		}
		return out
	default:
		return t
	}
}

// normalizeNumbers converts numeric values to json.Number so that integers
// beyond float64 precision survive a parse/encode cycle.
func normalizeNumbers(val any) any {
	switch v := val.(type) {
	case core.Metadata:
		m := make(core.Metadata, len(v))
		for k, inner := range v {
			m[k] = normalizeNumbers(inner)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, inner := range v {
			m[k] = normalizeNumbers(inner)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, inner := range v {
			l[i] = normalizeNumbers(inner)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int32:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case uint64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}

// lowerNumbers is the inverse walk for the YAML and TOML encoders, which
// would otherwise render json.Number values as quoted strings.
func lowerNumbers(val any) any {
	switch v := val.(type) {
	case core.Metadata:
		return lowerNumbers(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, inner := range v {
			m[k] = lowerNumbers(inner)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, inner := range v {
			l[i] = lowerNumbers(inner)
		}
		return l
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	default:
		return v
	}
}
