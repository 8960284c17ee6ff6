package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModule(t *testing.T, root, module string) {
	t.Helper()
	content := "module " + module + "\n\ngo 1.24\n"
	if err := os.WriteFile(filepath.Join(root, ModFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindRootFrom_Found(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "example.com/calc")

	found, err := FindRootFrom(root)
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if found != root {
		t.Errorf("FindRootFrom() = %q, want %q", found, root)
	}
}

func TestFindRootFrom_FoundFromSubdir(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "example.com/calc")
	subdir := filepath.Join(root, "internal", "calc", "deep")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindRootFrom(subdir)
	if err != nil {
		t.Fatalf("FindRootFrom() error = %v", err)
	}
	if found != root {
		t.Errorf("FindRootFrom() = %q, want %q", found, root)
	}
}

func TestFindRootFrom_NotFound(t *testing.T) {
	// go.mod as a directory is not a module root
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ModFileName), 0755); err != nil {
		t.Fatal(err)
	}

	// A temp dir may itself live inside a module on some machines; only
	// check the error when the walk reaches the filesystem root.
	if found, err := FindRootFrom(dir); err == nil && found == dir {
		t.Errorf("FindRootFrom() = %q, want go.mod directory skipped", found)
	}
}

func TestModulePath(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "example.com/calc/v2")

	module, err := ModulePath(root)
	if err != nil {
		t.Fatalf("ModulePath() error = %v", err)
	}
	if module != "example.com/calc/v2" {
		t.Errorf("ModulePath() = %q", module)
	}
}

func TestModulePath_Errors(t *testing.T) {
	if _, err := ModulePath(t.TempDir()); err == nil {
		t.Error("ModulePath() without go.mod expected error")
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ModFileName), []byte("go 1.24\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ModulePath(root)
	if err == nil || !strings.Contains(err.Error(), "module name") {
		t.Errorf("ModulePath() error = %v, want missing module name", err)
	}
}

func TestLoadProjectFrom(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "example.com/calc")
	if err := os.WriteFile(filepath.Join(root, ".ontap.json"), []byte(`{"format": "tapj", "extra": 1}`), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProjectFrom(root)
	if err != nil {
		t.Fatalf("LoadProjectFrom() error = %v", err)
	}
	if p.Module != "example.com/calc" {
		t.Errorf("Module = %q", p.Module)
	}
	if p.Config.Format != "tapj" {
		t.Errorf("Config.Format = %q, want tapj", p.Config.Format)
	}
	if len(p.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one unknown field warning", p.Warnings)
	}
	if p.ConfigPath() != filepath.Join(root, ".ontap.json") {
		t.Errorf("ConfigPath() = %q", p.ConfigPath())
	}
}

func TestLoadProjectFrom_InvalidConfig(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "example.com/calc")
	if err := os.WriteFile(filepath.Join(root, ".ontap.json"), []byte(`{"radius": -1}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadProjectFrom(root); err == nil {
		t.Error("LoadProjectFrom() expected error")
	}
}

func TestProject_PackageDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "internal", "calc"), 0755); err != nil {
		t.Fatal(err)
	}
	p := &Project{Root: root, Module: "example.com/calc"}

	tests := []struct {
		importPath string
		want       string
		wantErr    bool
	}{
		{"example.com/calc", root, false},
		{"example.com/calc/internal/calc", filepath.Join(root, "internal", "calc"), false},
		{"example.com/calc/internal/calc [example.com/calc/internal/calc.test]", filepath.Join(root, "internal", "calc"), false},
		{"example.com/calculator", "", true},
		{"example.com/calc/missing", "", true},
		{"github.com/other/pkg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.importPath, func(t *testing.T) {
			got, err := p.PackageDir(tt.importPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PackageDir() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PackageDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_test.go", "a_test.go", "calc.go", "_skip_test.go", ".hidden_test.go"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("package calc\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "dir_test.go"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := TestFiles(dir)
	if err != nil {
		t.Fatalf("TestFiles() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a_test.go"), filepath.Join(dir, "b_test.go")}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("TestFiles() = %v, want %v", files, want)
	}

	if _, err := TestFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("TestFiles(missing) expected error")
	}
}
