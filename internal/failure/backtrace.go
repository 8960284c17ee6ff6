package failure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/ontap/internal/location"
)

// BacktraceOptions controls FormatBacktrace.
type BacktraceOptions struct {
	// Root makes frame paths relative when they lie inside it.
	Root string
	// Filter drops frames whose function matches Exclude.
	Filter bool
	// Exclude lists functions hidden by Filter. Entries ending in "." or "/"
	// are prefixes; others must match the function name exactly.
	Exclude []string
}

// DefaultExclude hides the Go runtime, testing, assertion helpers and ontap itself.
var DefaultExclude = []string{
	"runtime.",
	"testing.",
	"panic",
	"github.com/stretchr/testify/",
	"github.com/AndreyAkinshin/ontap/",
}

var (
	// file.go:42: pkg.Func
	normalizedFrame = regexp.MustCompile(`^(.+?):(\d+)(?::\s*(.*))?$`)
	// <tab>/src/file.go:42 +0x1d
	goStackFile = regexp.MustCompile(`^\s+(\S.*\.go):(\d+)(?:\s+\+0x[0-9a-f]+)?$`)
	// pkg.Func(0x1, 0x2) or created by pkg.Func in goroutine 7
	goStackFunc = regexp.MustCompile(`^(?:created by )?(\S+?)(?:\(.*\))?(?: in goroutine \d+)?$`)
)

// FormatBacktrace normalizes frames to "file:line: function", rewrites
// paths relative to opts.Root and, when opts.Filter is set, drops excluded
// frames. If filtering would drop every frame, the unfiltered list is kept.
// Frames that do not look like file:line pairs pass through unchanged.
func FormatBacktrace(frames []string, opts BacktraceOptions) []string {
	all := make([]string, 0, len(frames))
	kept := make([]string, 0, len(frames))

	for _, raw := range frames {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		m := normalizedFrame.FindStringSubmatch(raw)
		if m == nil {
			all = append(all, raw)
			kept = append(kept, raw)
			continue
		}
		line, _ := strconv.Atoi(m[2])
		function := m[3]
		frame := formatFrame(location.Relative(m[1], opts.Root), line, function)
		all = append(all, frame)
		if opts.Filter && excluded(function, opts.Exclude) {
			continue
		}
		kept = append(kept, frame)
	}

	if len(kept) == 0 {
		return all
	}
	return kept
}

func excluded(function string, prefixes []string) bool {
	if function == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasSuffix(p, ".") || strings.HasSuffix(p, "/") {
			if strings.HasPrefix(function, p) {
				return true
			}
		} else if function == p {
			return true
		}
	}
	return false
}

// ParseGoStack converts goroutine stack text, as printed by a panicking test
// or runtime/debug.Stack, into "file:line: function" frames.
func ParseGoStack(stack string) []string {
	var frames []string
	function := ""
	for _, line := range strings.Split(stack, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := goStackFile.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[2])
			frames = append(frames, formatFrame(m[1], n, function))
			function = ""
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "goroutine ") || strings.HasPrefix(trimmed, "panic:") {
			function = ""
			continue
		}
		if m := goStackFunc.FindStringSubmatch(trimmed); m != nil {
			function = m[1]
		}
	}
	return frames
}
