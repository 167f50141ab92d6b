package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/vellumkit/vellum/pkg/core"
)

// Manifest is the site-level configuration, read from vellum.yaml (or
// .toml/.json) at the site root. Every field has a usable default, so a
// site without a manifest behaves sensibly.
type Manifest struct {
	// ContentDir is where posts live, relative to the site root.
	ContentDir string `mapstructure:"content_dir"`
	// DefaultFormat is the front-matter dialect for new posts.
	DefaultFormat string `mapstructure:"default_format"`
	// DefaultLayout seeds the layout key of new posts.
	DefaultLayout string `mapstructure:"default_layout"`
	// Required lists front-matter keys a post must declare beyond title.
	Required []string `mapstructure:"required"`
	// Comments is the default comment flag for new posts.
	Comments bool `mapstructure:"comments"`
}

// DefaultManifest returns the configuration used when no manifest file
// exists.
func DefaultManifest() Manifest {
	return Manifest{
		ContentDir:    "content",
		DefaultFormat: string(core.FormatYAML),
		DefaultLayout: "post",
		Comments:      true,
	}
}

// Format converts the manifest's dialect name to a core.Format.
func (m Manifest) Format() (core.Format, error) {
	switch strings.ToLower(m.DefaultFormat) {
	case "", "yaml":
		return core.FormatYAML, nil
	case "toml":
		return core.FormatTOML, nil
	case "json":
		return core.FormatJSON, nil
	}
	return core.FormatNone, fmt.Errorf("unknown front-matter format: %s", m.DefaultFormat)
}

// Defaults maps the manifest onto draft defaults for new posts.
func (m Manifest) Defaults() core.DraftDefaults {
	format, err := m.Format()
	if err != nil {
		format = core.FormatYAML
	}
	return core.DraftDefaults{
		Layout:   m.DefaultLayout,
		Comments: m.Comments,
		Format:   format,
	}
}

// LoadManifest reads the site manifest from siteRoot. Values can be
// overridden through VELLUM_* environment variables (VELLUM_CONTENT_DIR,
// VELLUM_DEFAULT_FORMAT, ...). A missing manifest file is not an error.
func LoadManifest(siteRoot string) (Manifest, error) {
	v := viper.New()
	v.SetConfigName("vellum")
	v.AddConfigPath(siteRoot)

	v.SetEnvPrefix("VELLUM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := DefaultManifest()
	v.SetDefault("content_dir", def.ContentDir)
	v.SetDefault("default_format", def.DefaultFormat)
	v.SetDefault("default_layout", def.DefaultLayout)
	v.SetDefault("required", def.Required)
	v.SetDefault("comments", def.Comments)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Manifest{}, fmt.Errorf("failed to read site manifest: %w", err)
		}
	}

	var m Manifest
	if err := v.Unmarshal(&m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse site manifest: %w", err)
	}

	if _, err := m.Format(); err != nil {
		return Manifest{}, err
	}

	return m, nil
}
