package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Module locates a Go module on disk.
type Module struct {
	Dir  string // absolute directory holding go.mod
	Path string // module path from go.mod
}

// FindModule walks up from dir to the nearest go.mod.
func FindModule(dir string) (Module, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, err
	}
	for cur := abs; ; {
		data, err := os.ReadFile(filepath.Join(cur, "go.mod")) // #nosec G304 - walking up from a user-supplied dir
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return Module{}, fmt.Errorf("%s: no module directive", filepath.Join(cur, "go.mod"))
			}
			return Module{Dir: cur, Path: modPath}, nil
		}
		if !os.IsNotExist(err) {
			return Module{}, err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return Module{}, fmt.Errorf("no go.mod found at or above %s", abs)
		}
		cur = parent
	}
}

// ImportPath maps a directory inside the module to its package import path.
func (m Module) ImportPath(dir string) (string, error) {
	rel, err := filepath.Rel(m.Dir, dir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module %s", dir, m.Path)
	}
	return joinImport(m.Path, rel), nil
}
