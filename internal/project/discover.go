package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TestFiles returns the _test.go files of a package directory, sorted by name.
func TestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, "_test.go") || isIgnoredFile(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// isIgnoredFile reports files the go tool skips.
func isIgnoredFile(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func validatePackageDirectory(dir string, importPath string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("package %q: directory %q does not exist", importPath, dir)
	}
	if err != nil {
		return fmt.Errorf("package %q: cannot access directory %q: %w", importPath, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("package %q: %q is not a directory", importPath, dir)
	}
	return nil
}
