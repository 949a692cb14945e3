// Package scenario discovers the test-to-spec links declared in Go test sources.
//
// A test declares the spec it satisfies with a doc-comment mark:
//
//	// Scenario: auth/login
//	func TestLogin(t *testing.T) { ... }
//
// The mark takes exactly one argument and may appear at most once per test.
package scenario

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dkoosis/speccov/pkg/coverage"
)

// MarkPrefix introduces a scenario mark inside a test's doc comment.
const MarkPrefix = "Scenario:"

// MarkError reports a malformed mark at file:line.
type MarkError struct {
	File   string
	Line   int
	Reason string
}

func (e *MarkError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// Scan walks root for _test.go files and returns one link per top-level Test
// function. Unmarked tests carry an empty Scenario.
func Scan(root string, mod Module) ([]coverage.TestLink, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var links []coverage.TestLink
	err = filepath.WalkDir(absRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == absRoot {
				return nil
			}
			if skipDir(p, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, "_test.go") {
			return nil
		}
		fl, err := scanFile(p, mod)
		if err != nil {
			return err
		}
		links = append(links, fl...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// skipDir mirrors the directories the go tool ignores for ./... patterns.
func skipDir(p, name string) bool {
	switch name {
	case "vendor", "testdata":
		return true
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	// Nested modules are not part of this module's test run.
	if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
		return true
	}
	return false
}

func scanFile(file string, mod Module) ([]coverage.TestLink, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	pkgPath, err := mod.ImportPath(filepath.Dir(file))
	if err != nil {
		return nil, err
	}

	var links []coverage.TestLink
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !isTestName(fn.Name.Name) {
			continue
		}
		id, err := markOf(fset, fn)
		if err != nil {
			return nil, err
		}
		links = append(links, coverage.TestLink{
			TestID:   coverage.TestID(pkgPath, fn.Name.Name),
			Scenario: id,
		})
	}
	return links, nil
}

// markOf extracts the scenario id from fn's doc comment, or "" when unmarked.
func markOf(fset *token.FileSet, fn *ast.FuncDecl) (string, error) {
	if fn.Doc == nil {
		return "", nil
	}
	var id string
	seen := false
	for _, c := range fn.Doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if !strings.HasPrefix(text, MarkPrefix) {
			continue
		}
		pos := fset.Position(c.Pos())
		if seen {
			return "", &MarkError{File: pos.Filename, Line: pos.Line,
				Reason: fmt.Sprintf("%s declares more than one scenario", fn.Name.Name)}
		}
		seen = true

		arg, err := parseArg(strings.TrimSpace(strings.TrimPrefix(text, MarkPrefix)))
		if err != nil {
			return "", &MarkError{File: pos.Filename, Line: pos.Line,
				Reason: fmt.Sprintf("%s: %v", fn.Name.Name, err)}
		}
		id = arg
	}
	return id, nil
}

// parseArg accepts a bare or double-quoted single argument.
func parseArg(s string) (string, error) {
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return "", fmt.Errorf("bad quoted scenario %s", s)
		}
		s = unq
	} else if strings.ContainsAny(s, " \t") {
		return "", fmt.Errorf("scenario mark takes exactly one argument, got %q", s)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("scenario mark needs an id")
	}
	return s, nil
}

// isTestName matches the go test rule: Test followed by end or a non-lowercase rune.
func isTestName(name string) bool {
	if !strings.HasPrefix(name, "Test") {
		return false
	}
	rest := name[len("Test"):]
	if rest == "" {
		return true
	}
	r := rest[0]
	return !('a' <= r && r <= 'z')
}

// Select returns the ids of links whose test name matches run, mirroring
// go test -run on top-level tests. A nil run selects everything.
func Select(links []coverage.TestLink, run *regexp.Regexp) map[string]bool {
	selected := make(map[string]bool, len(links))
	for _, l := range links {
		_, fn := coverage.SplitTestID(l.TestID)
		if run == nil || run.MatchString(fn) {
			selected[l.TestID] = true
		}
	}
	return selected
}

// Observer scans a test tree on demand.
type Observer struct {
	Dir string
}

// ObserveTestLinks resolves the enclosing module of Dir and scans it.
func (o Observer) ObserveTestLinks() ([]coverage.TestLink, error) {
	mod, err := FindModule(o.Dir)
	if err != nil {
		return nil, err
	}
	return Scan(o.Dir, mod)
}

// joinImport joins a module path and a slash-separated relative directory.
func joinImport(modPath, rel string) string {
	if rel == "." || rel == "" {
		return modPath
	}
	return path.Join(modPath, rel)
}
