package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	baseDir := t.TempDir()
	siteDir := filepath.Join(baseDir, "site")
	subDir := filepath.Join(siteDir, "content")
	nestedDir := filepath.Join(subDir, "drafts")
	emptyDir := filepath.Join(baseDir, "empty")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}

	if err := os.Mkdir(filepath.Join(siteDir, ".vellum"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{name: "start at root", startPath: siteDir, wantRoot: siteDir},
		{name: "start in content dir", startPath: subDir, wantRoot: siteDir},
		{name: "start nested deeply", startPath: nestedDir, wantRoot: siteDir},
		{name: "no root found", startPath: emptyDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("FindRoot() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != "" && filepath.Clean(got) != filepath.Clean(tt.wantRoot) {
				t.Errorf("FindRoot() = %v, want %v", got, tt.wantRoot)
			}
		})
	}
}

func TestFindRootManifestMarker(t *testing.T) {
	baseDir := t.TempDir()
	siteDir := filepath.Join(baseDir, "site")
	subDir := filepath.Join(siteDir, "content")

	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(siteDir, "vellum.yaml"), []byte("content_dir: content\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindRoot(subDir)
	if err != nil {
		t.Fatalf("FindRoot() failed: %v", err)
	}
	if filepath.Clean(got) != filepath.Clean(siteDir) {
		t.Errorf("FindRoot() = %v, want %v", got, siteDir)
	}
}
