package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const passingRun = `{"Action":"run","Package":"example.com/x","Test":"TestOK"}
{"Action":"pass","Package":"example.com/x","Test":"TestOK","Elapsed":0.1}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestInvalidProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/x\n")
	writeFile(t, filepath.Join(dir, ".ontap.json"), `{"format": "xml"}`)

	code, _, stderr := ontap(t, passingRun, "convert", "--root", dir)
	if code != 2 {
		t.Errorf("exit code = %d, want 2 (config error)", code)
	}
	if !strings.Contains(stderr, ".ontap.json") {
		t.Errorf("stderr = %q, want it to name the config file", stderr)
	}
}

func TestUnknownConfigFieldWarns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/x\n")
	writeFile(t, filepath.Join(dir, ".ontap.json"), `{"format": "tapj", "colour": true}`)

	code, stdout, stderr := ontap(t, passingRun, "convert", "--root", dir)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "colour") {
		t.Errorf("stderr = %q, want a warning about the unknown field", stderr)
	}
	decode(t, stdout)
}

func TestInvalidEnvironmentOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/x\n")
	t.Setenv("ONTAP_RADIUS", "wide")

	code, _, stderr := ontap(t, passingRun, "convert", "--root", dir)
	if code != 2 {
		t.Errorf("exit code = %d, want 2\nstderr: %s", code, stderr)
	}
}

func TestDotEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/x\n")
	writeFile(t, filepath.Join(dir, ".env"), "ONTAP_FORMAT=tapj\n")

	code, stdout, stderr := ontap(t, passingRun, "convert", "--root", dir)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "{") {
		t.Errorf(".env should select TAP-J, got:\n%s", stdout)
	}
}

func TestConvertWithoutModule(t *testing.T) {
	dir := t.TempDir()

	code, stdout, stderr := ontap(t, passingRun, "convert", "--root", dir, "--format", "tapj")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	docs := decode(t, stdout)
	for _, doc := range docs {
		if doc["type"] == "test" {
			if _, ok := doc["file"]; ok {
				t.Errorf("test document has a file without a module: %v", doc)
			}
		}
	}
}
