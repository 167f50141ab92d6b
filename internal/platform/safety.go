package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the process was started via `go run` or
// `go test`, based on where the toolchain builds its binaries.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveSitePath applies the dev sandbox: when forceTemp is set the
// content path is re-rooted under the system temp directory, so a stray
// `go run` cannot scribble over a real site. Paths already inside the
// temp directory (t.TempDir() and friends) are trusted as-is.
func ResolveSitePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	cleanUserPath := filepath.Clean(userPath)
	tempRoot := os.TempDir()

	rel, err := filepath.Rel(tempRoot, cleanUserPath)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	subName := "default"
	if userPath != "" && userPath != "." && userPath != "./" {
		if base := filepath.Base(userPath); base != "." && base != string(os.PathSeparator) {
			subName = base
		}
	}

	return filepath.Join(tempRoot, "vellum-dev", subName)
}
