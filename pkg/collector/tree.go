package collector

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/dkoosis/speccov/pkg/spec"
)

const indexStem = "index"

// documentFormat describes one structured-text flavor.
type documentFormat struct {
	ext   string
	title func(data []byte) (string, error)
}

// treeBuilder walks a spec directory into a spec.Node tree.
type treeBuilder struct {
	cfg    Config
	format documentFormat
	root   string
	logger *zap.Logger
}

func collectTree(cfg Config, format documentFormat) (*spec.Node, error) {
	abs, err := filepath.Abs(cfg.SpecDir)
	if err != nil {
		return nil, &CollectorError{Path: cfg.SpecDir, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &CollectorError{Path: abs, Err: fmt.Errorf("%w: %w", ErrSourceRoot, err)}
	}
	if !info.IsDir() {
		return nil, &CollectorError{Path: abs, Err: fmt.Errorf("%w: not a directory", ErrSourceRoot)}
	}

	b := &treeBuilder{cfg: cfg, format: format, root: abs, logger: cfg.logger()}
	root, _, err := b.dir(abs, "")
	if err != nil {
		return nil, err
	}
	if root.Title == "" {
		root.Title = filepath.Base(abs)
	}
	return root, nil
}

// dir builds the section for one directory. keep is false when the
// directory holds no qualifying documents at any depth.
func (b *treeBuilder) dir(abs, id string) (node *spec.Node, keep bool, err error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, false, &CollectorError{Path: abs, Err: err}
	}

	node = &spec.Node{ID: id, Kind: spec.KindSection, Path: abs}
	hasIndex := false

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(abs, name)

		if e.IsDir() {
			childID := path.Join(id, name)
			if b.excluded(childID) {
				continue
			}
			child, ok, err := b.dir(full, childID)
			if err != nil {
				return nil, false, err
			}
			if ok {
				node.Children = append(node.Children, child)
			}
			continue
		}

		if !e.Type().IsRegular() || filepath.Ext(name) != b.format.ext {
			continue
		}
		stem := strings.TrimSuffix(name, b.format.ext)
		if b.excluded(path.Join(id, name)) {
			continue
		}

		title, err := b.readTitle(full)
		if err != nil {
			return nil, false, err
		}

		if stem == indexStem {
			hasIndex = true
			node.Title = title
			continue
		}
		if title == "" {
			title = stem
		}
		docID := spec.JoinID(id, stem)
		node.Children = append(node.Children, &spec.Node{
			ID:    docID,
			Title: title,
			Kind:  spec.KindDocument,
			Link:  b.cfg.link(docID, spec.KindDocument),
			Path:  full,
		})
	}

	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].ID < node.Children[j].ID
	})

	if hasIndex {
		node.Link = b.cfg.link(id, spec.KindSection)
	}
	if node.Title == "" && id != "" {
		node.Title = path.Base(id)
	}
	return node, hasIndex || len(node.Children) > 0, nil
}

// readTitle fails only when the file cannot be read. A title that cannot be
// parsed is logged and left empty so the caller falls back to the file name.
func (b *treeBuilder) readTitle(file string) (string, error) {
	data, err := os.ReadFile(file) // #nosec G304 - path comes from walking the spec root
	if err != nil {
		return "", &CollectorError{Path: file, Err: err}
	}
	title, err := b.format.title(data)
	if err != nil {
		b.logger.Warn("could not read title, using file name",
			zap.String("path", file), zap.Error(err))
		return "", nil
	}
	if strings.Contains(title, "|") {
		b.logger.Warn("substitution references in titles are not expanded",
			zap.String("path", file), zap.String("title", title))
	}
	return title, nil
}

// excluded matches a relative "/"-separated path against the configured patterns.
func (b *treeBuilder) excluded(rel string) bool {
	for _, p := range b.cfg.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
