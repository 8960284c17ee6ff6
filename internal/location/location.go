// Package location extracts file:line pairs from location strings and traces.
package location

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Location identifies a line in a source file.
// The zero value means "no location".
type Location struct {
	File string
	Line int
}

// Valid reports whether both a file and a positive line are present.
func (l Location) Valid() bool {
	return l.File != "" && l.Line > 0
}

func (l Location) String() string {
	if !l.Valid() {
		return ""
	}
	return l.File + ":" + strconv.Itoa(l.Line)
}

// traceRegex matches the first path:line occurrence in a frame. The line
// number must be followed by another colon or the end of the line.
var traceRegex = regexp.MustCompile(`^(.+?):(\d+)(?::|$)`)

// Parse splits a "file:line" string on the last colon before the line number.
// Returns the zero Location when raw has no numeric line suffix.
func Parse(raw string) Location {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return Location{}
	}
	line, err := strconv.Atoi(raw[idx+1:])
	if err != nil || line <= 0 {
		return Location{}
	}
	return Location{File: raw[:idx], Line: line}
}

// FromTrace returns the location in the first line of trace that contains
// a path:line pair.
func FromTrace(trace string) Location {
	for _, line := range strings.Split(trace, "\n") {
		if loc := match(line); loc.Valid() {
			return loc
		}
	}
	return Location{}
}

// FromFrames returns the location of the first frame. Later frames are not
// consulted: the first frame is where the failure was raised.
func FromFrames(frames []string) Location {
	if len(frames) == 0 {
		return Location{}
	}
	return match(frames[0])
}

func match(line string) Location {
	m := traceRegex.FindStringSubmatch(strings.TrimSpace(strings.TrimSuffix(line, "\r")))
	if m == nil {
		return Location{}
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return Location{}
	}
	return Location{File: m[1], Line: n}
}

// Relative returns path relative to base when path lies inside base.
// Paths outside base, and relative paths, are returned unchanged.
func Relative(path, base string) string {
	if base == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
