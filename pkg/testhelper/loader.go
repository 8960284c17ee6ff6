// Package testhelper compares TAP-Y/J streams against golden files.
//
// Example usage in a Go test:
//
//	func TestReport(t *testing.T) {
//	    var buf bytes.Buffer
//	    r, _ := ontap.New(&buf, ontap.Options{Format: ontap.FormatTAPJ})
//	    // ... report a run ...
//
//	    actual, err := testhelper.ParseStream(buf.Bytes())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    expected, err := testhelper.LoadStream("testdata/report.tapj")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    if ok, diff := testhelper.CompareStreams(expected, actual, testhelper.DefaultOptions()); !ok {
//	        t.Error(diff)
//	    }
//	}
package testhelper

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/ontap/internal/sink"
)

// UpdateEnv names the environment variable that makes WriteGolden rewrite
// golden files instead of leaving them alone.
const UpdateEnv = "ONTAP_UPDATE_GOLDEN"

// ParseStream decodes a TAP-Y or TAP-J stream.
func ParseStream(data []byte) ([]map[string]any, error) {
	return sink.ReadStream(bytes.NewReader(data))
}

// LoadStream reads and decodes the stream stored at path.
func LoadStream(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := ParseStream(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Updating reports whether golden files should be rewritten.
func Updating() bool {
	v := strings.ToLower(os.Getenv(UpdateEnv))
	return v == "1" || v == "true" || v == "yes"
}

// WriteGolden stores data at path when Updating is set. It reports whether
// the file was written.
func WriteGolden(path string, data []byte) (bool, error) {
	if !Updating() {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// GoldenNotFoundError indicates a golden file is missing.
type GoldenNotFoundError struct {
	Path string
}

func (e *GoldenNotFoundError) Error() string {
	return e.Path + " not found (set " + UpdateEnv + "=1 to create it)"
}

// LoadGolden reads the golden stream at path, returning a
// *GoldenNotFoundError when it does not exist.
func LoadGolden(path string) ([]map[string]any, error) {
	docs, err := LoadStream(path)
	if os.IsNotExist(err) {
		return nil, &GoldenNotFoundError{Path: path}
	}
	return docs, err
}
