package core

// DraftDefaults carries the site-level defaults applied to new posts.
type DraftDefaults struct {
	Layout   string
	Category string
	Keywords []string
	Comments bool
	Format   Format
}

// NewDraft builds a fresh post for the given title. The slug is derived
// from the title and the metadata is seeded from the defaults; the body
// starts empty.
func NewDraft(title string, d DraftDefaults) Post {
	meta := Metadata{
		KeyTitle:    title,
		KeyComments: d.Comments,
	}
	if d.Layout != "" {
		meta[KeyLayout] = d.Layout
	}
	if d.Category != "" {
		meta[KeyCategory] = d.Category
	}
	if len(d.Keywords) > 0 {
		kws := make([]any, len(d.Keywords))
		for i, k := range d.Keywords {
			kws[i] = k
		}
		meta[KeyKeywords] = kws
	}

	format := d.Format
	if format == FormatNone {
		format = FormatYAML
	}

	return Post{
		Slug:     Slugify(title),
		Metadata: meta,
		Format:   format,
	}
}
