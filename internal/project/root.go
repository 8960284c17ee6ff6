// Package project locates the Go module a test run belongs to and maps its
// import paths back to directories.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ModFileName marks a Go module root.
const ModFileName = "go.mod"

// ErrNoProjectRoot is returned when no go.mod is found.
var ErrNoProjectRoot = errors.New("go.mod not found: not inside a Go module (or any parent up to the root)")

// FindRoot walks up from the current working directory until it finds go.mod.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds go.mod.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ModFileName)); err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}
