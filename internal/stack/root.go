package stack

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootMarkers are files whose presence identifies a project root.
var rootMarkers = []string{
	".git", manifestName, "go.mod", "requirements.txt",
	"pyproject.toml", "pom.xml", "build.gradle",
}

// FindRoot walks up from start looking for a directory that holds one of
// the root markers. When none is found before the filesystem root, start
// itself is returned and the caller decides what to do.
func FindRoot(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		start = wd
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	current := abs
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current, nil
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		current = parent
	}
}
