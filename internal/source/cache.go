// Package source loads test source files and excerpts snippets from them.
package source

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AndreyAkinshin/ontap/internal/errors"
)

// Cache memoizes file contents split into lines. Entries are never evicted:
// a run touches a small, finite set of test files.
type Cache struct {
	// Root resolves relative paths. Empty means the working directory.
	Root string

	mu    sync.Mutex
	files map[string][]string
}

// NewCache creates a cache resolving relative paths against root.
func NewCache(root string) *Cache {
	return &Cache{
		Root:  root,
		files: make(map[string][]string),
	}
}

// Lines returns the lines of file without line terminators; line N is
// lines[N-1]. Returns an error matching errors.ErrSourceUnavailable when the
// file is missing, not a regular file, or unreadable. Failed reads are not
// cached.
func (c *Cache) Lines(file string) ([]string, error) {
	path := c.resolve(file)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.files == nil {
		c.files = make(map[string][]string)
	}
	if lines, ok := c.files[path]; ok {
		return lines, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.SourceUnavailable(file, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.SourceUnavailable(file, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.SourceUnavailable(file, err)
	}

	lines := splitLines(string(data))
	c.files[path] = lines
	return lines, nil
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

func (c *Cache) resolve(file string) string {
	if c.Root == "" || filepath.IsAbs(file) {
		return filepath.Clean(file)
	}
	return filepath.Join(c.Root, file)
}

// splitLines splits text on newlines, dropping the terminator of each line.
// A final newline does not start an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
