package testhelper

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// CompareOptions configures stream comparison.
type CompareOptions struct {
	// FloatTolerance is the absolute tolerance for numbers.
	FloatTolerance float64

	// IgnoreKeys are skipped in documents and nested mappings. Durations
	// and start times change from run to run.
	IgnoreKeys []string

	// Subset accepts keys in actual that expected does not have, so golden
	// files can pin only the fields a test cares about.
	Subset bool
}

// DefaultOptions ignores "time" and "start" and compares numbers exactly
// up to rounding.
func DefaultOptions() CompareOptions {
	return CompareOptions{
		FloatTolerance: 1e-9,
		IgnoreKeys:     []string{"time", "start"},
	}
}

// Equal reports whether expected and actual match.
func Equal(expected, actual any, opts CompareOptions) bool {
	ok, _ := Compare(expected, actual, opts)
	return ok
}

// Compare compares two decoded values and describes the first difference.
func Compare(expected, actual any, opts CompareOptions) (bool, string) {
	return compareValues(expected, actual, opts, "")
}

// CompareStreams compares two decoded streams document by document.
func CompareStreams(expected, actual []map[string]any, opts CompareOptions) (bool, string) {
	if len(expected) != len(actual) {
		return false, fmt.Sprintf("$: document count mismatch (expected=%d, actual=%d)%s",
			len(expected), len(actual), outline(expected, actual))
	}
	for i := range expected {
		if ok, diff := compareObject(expected[i], actual[i], opts, fmt.Sprintf("[%d]", i)); !ok {
			return false, diff
		}
	}
	return true, ""
}

// outline lists the document types of both streams.
func outline(expected, actual []map[string]any) string {
	types := func(docs []map[string]any) string {
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = fmt.Sprint(d["type"])
		}
		return strings.Join(names, " ")
	}
	return fmt.Sprintf("\n  expected: %s\n  actual:   %s", types(expected), types(actual))
}

func compareValues(expected, actual any, opts CompareOptions, path string) (bool, string) {
	if expected == nil && actual == nil {
		return true, ""
	}
	if expected == nil || actual == nil {
		return false, fmt.Sprintf("%s: nil mismatch (expected=%v, actual=%v)", pathStr(path), expected, actual)
	}

	switch e := expected.(type) {
	case float64:
		return compareNumber(e, actual, opts, path)
	case int:
		return compareNumber(float64(e), actual, opts, path)
	case []any:
		return compareArray(e, actual, opts, path)
	case map[string]any:
		return compareObject(e, actual, opts, path)
	case string:
		if a, ok := actual.(string); ok {
			if e == a {
				return true, ""
			}
			return false, fmt.Sprintf("%s: string mismatch (expected=%q, actual=%q)", pathStr(path), e, a)
		}
		return false, fmt.Sprintf("%s: type mismatch (expected=string, actual=%T)", pathStr(path), actual)
	default:
		if expected == actual {
			return true, ""
		}
		return false, fmt.Sprintf("%s: value mismatch (expected=%v, actual=%v)", pathStr(path), expected, actual)
	}
}

func compareNumber(expected float64, actual any, opts CompareOptions, path string) (bool, string) {
	var a float64
	switch v := actual.(type) {
	case float64:
		a = v
	case int:
		a = float64(v)
	default:
		return false, fmt.Sprintf("%s: type mismatch (expected=number, actual=%T)", pathStr(path), actual)
	}
	if math.Abs(expected-a) <= opts.FloatTolerance {
		return true, ""
	}
	return false, fmt.Sprintf("%s: number mismatch (expected=%v, actual=%v)", pathStr(path), expected, a)
}

func compareArray(expected []any, actual any, opts CompareOptions, path string) (bool, string) {
	a, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("%s: type mismatch (expected=array, actual=%T)", pathStr(path), actual)
	}
	if len(expected) != len(a) {
		return false, fmt.Sprintf("%s: array length mismatch (expected=%d, actual=%d)", pathStr(path), len(expected), len(a))
	}
	for i := range expected {
		if ok, diff := compareValues(expected[i], a[i], opts, fmt.Sprintf("%s[%d]", path, i)); !ok {
			return false, diff
		}
	}
	return true, ""
}

func compareObject(expected map[string]any, actual any, opts CompareOptions, path string) (bool, string) {
	a, ok := actual.(map[string]any)
	if !ok {
		return false, fmt.Sprintf("%s: type mismatch (expected=object, actual=%T)", pathStr(path), actual)
	}

	for _, key := range sortedKeys(expected) {
		if slices.Contains(opts.IgnoreKeys, key) {
			continue
		}
		if _, ok := a[key]; !ok {
			return false, fmt.Sprintf("%s.%s: missing in actual", pathStr(path), key)
		}
	}
	if !opts.Subset {
		for _, key := range sortedKeys(a) {
			if slices.Contains(opts.IgnoreKeys, key) {
				continue
			}
			if _, ok := expected[key]; !ok {
				return false, fmt.Sprintf("%s.%s: unexpected in actual", pathStr(path), key)
			}
		}
	}
	for _, key := range sortedKeys(expected) {
		if slices.Contains(opts.IgnoreKeys, key) {
			continue
		}
		if ok, diff := compareValues(expected[key], a[key], opts, path+"."+key); !ok {
			return false, diff
		}
	}
	return true, ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// pathStr formats a path for error messages using JSON Path conventions.
// Returns "$" for the root.
func pathStr(path string) string {
	if path == "" {
		return "$"
	}
	return "$" + path
}
