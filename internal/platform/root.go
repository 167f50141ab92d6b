package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootIndicators mark a directory as a site root, checked in order.
var rootIndicators = []string{
	".vellum",
	"vellum.yaml",
	"vellum.toml",
	"vellum.json",
	".git",
}

// FindRoot walks upward from startDir looking for a site root indicator:
// the .vellum system dir, a vellum manifest, or a .git directory. It
// returns the absolute path of the first directory that carries one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range rootIndicators {
			if hasFile(dir, name) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no site root found above %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
