package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vellumkit/vellum/pkg/core"
)

func TestLoadManifestDefaults(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	if err != nil {
		t.Fatalf("LoadManifest failed without a manifest file: %v", err)
	}

	if m.ContentDir != "content" {
		t.Errorf("default content_dir = %q", m.ContentDir)
	}
	if m.DefaultLayout != "post" {
		t.Errorf("default layout = %q", m.DefaultLayout)
	}
	if !m.Comments {
		t.Error("comments should default to enabled")
	}

	format, err := m.Format()
	if err != nil {
		t.Fatal(err)
	}
	if format != core.FormatYAML {
		t.Errorf("default format = %v, want yaml", format)
	}
}

func TestLoadManifestFromFile(t *testing.T) {
	root := t.TempDir()
	manifest := `content_dir: posts
default_format: toml
default_layout: article
required:
  - category
comments: false
`
	if err := os.WriteFile(filepath.Join(root, "vellum.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	if m.ContentDir != "posts" {
		t.Errorf("content_dir = %q", m.ContentDir)
	}
	if m.DefaultLayout != "article" {
		t.Errorf("default_layout = %q", m.DefaultLayout)
	}
	if len(m.Required) != 1 || m.Required[0] != "category" {
		t.Errorf("required = %v", m.Required)
	}
	if m.Comments {
		t.Error("comments should be disabled")
	}

	format, err := m.Format()
	if err != nil {
		t.Fatal(err)
	}
	if format != core.FormatTOML {
		t.Errorf("format = %v, want toml", format)
	}
}

func TestLoadManifestRejectsUnknownFormat(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "vellum.yaml"), []byte("default_format: ini\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(root); err == nil {
		t.Error("expected error for unknown front-matter format")
	}
}

func TestManifestDefaults(t *testing.T) {
	m := Manifest{DefaultLayout: "article", DefaultFormat: "json", Comments: true}

	d := m.Defaults()
	if d.Layout != "article" {
		t.Errorf("layout = %q", d.Layout)
	}
	if d.Format != core.FormatJSON {
		t.Errorf("format = %v", d.Format)
	}
	if !d.Comments {
		t.Error("comments flag lost")
	}
}
