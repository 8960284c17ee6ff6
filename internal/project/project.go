package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/AndreyAkinshin/ontap/internal/config"
)

// Project is a Go module together with its ontap configuration.
type Project struct {
	Root     string
	Module   string // Module path from go.mod
	Config   *config.Config
	Warnings []string
}

// LoadProject finds and loads the project containing the current directory.
func LoadProject() (*Project, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads the project rooted at root.
func LoadProjectFrom(root string) (*Project, error) {
	module, err := ModulePath(root)
	if err != nil {
		return nil, err
	}

	cfg, warnings, err := config.LoadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &Project{
		Root:     root,
		Module:   module,
		Config:   cfg,
		Warnings: warnings,
	}, nil
}

// ModulePath reads the module path declared by root/go.mod.
func ModulePath(root string) (string, error) {
	path := filepath.Join(root, ModFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}

	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return "", fmt.Errorf("could not find module name in %s", path)
	}
	return f.Module.Mod.Path, nil
}

// ConfigPath returns the full path to the project configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, config.FileName)
}

// PackageDir returns the directory of a package of this module. The test
// variant suffix go test adds to import paths (" [pkg.test]") is ignored.
func (p *Project) PackageDir(importPath string) (string, error) {
	importPath, _, _ = strings.Cut(importPath, " ")
	rel, ok := strings.CutPrefix(importPath, p.Module)
	if !ok || (rel != "" && !strings.HasPrefix(rel, "/")) {
		return "", fmt.Errorf("package %s is not in module %s", importPath, p.Module)
	}

	dir := filepath.Join(p.Root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if err := validatePackageDirectory(dir, importPath); err != nil {
		return "", err
	}
	return dir, nil
}
