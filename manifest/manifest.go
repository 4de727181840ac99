// Package manifest handles aril.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an aril.toml project configuration.
type Manifest struct {
	Project   Project   `toml:"project"`
	Interface Interface `toml:"interface"`

	// Dir is the directory containing the aril.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Interface configures interface-document emission.
type Interface struct {
	// Output is the path of the textual interface document.
	Output string `toml:"output"`
	// Wire is the path of the canonical binary document (empty = none).
	Wire string `toml:"wire"`
	// Store is the path of the schema registry database (empty = none).
	Store string `toml:"store"`
	// Bindings is the directory for generated Go bindings (empty = none).
	Bindings string `toml:"bindings"`
	// Package is the Go package name for generated bindings.
	Package string `toml:"package"`
}

// Load parses an aril.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "aril.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Interface.Output == "" {
		m.Interface.Output = m.Project.Name + ".ail"
	}
	if m.Interface.Package == "" {
		m.Interface.Package = "bindings"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an aril.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", startDir, err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "aril.toml")); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Resolve returns path interpreted relative to the manifest directory,
// unless it is already absolute.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}
