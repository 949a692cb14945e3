// Package collector turns an external source of specification documents into
// a spec.Node tree. Collector types are resolved by name through a Registry,
// which third parties may extend before the session resolves its type.
package collector

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/dkoosis/speccov/pkg/spec"
)

// Defaults for Config fields left empty.
const (
	DefaultBranchEnv = "BRANCH_NAME"
	DefaultBranch    = "master"
)

// Collector scans a source and returns the root of its spec tree.
type Collector interface {
	// Validate checks the options this collector type recognizes without
	// touching the source. Failures are *ConfigurationError.
	Validate(cfg Config) error
	// Collect builds the tree. Source failures are *CollectorError.
	Collect(cfg Config) (*spec.Node, error)
}

// Config holds the options recognized by the built-in collectors.
type Config struct {
	SpecDir       string   // root directory to scan (required)
	Endpoint      string   // base URL for links; empty disables links
	DefaultBranch string   // branch used when BranchEnv is unset
	BranchEnv     string   // env var holding the branch name
	Exclude       []string // doublestar patterns relative to SpecDir

	// Env looks up environment variables. Nil means os.LookupEnv.
	Env func(key string) (string, bool)
	// Logger receives title warnings. Nil discards them.
	Logger *zap.Logger
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Branch resolves the branch name used for link building.
func (c Config) Branch() string {
	lookup := c.Env
	if lookup == nil {
		lookup = os.LookupEnv
	}
	name := c.BranchEnv
	if name == "" {
		name = DefaultBranchEnv
	}
	if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if c.DefaultBranch != "" {
		return c.DefaultBranch
	}
	return DefaultBranch
}

// Validate checks the options shared by every directory-based collector.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SpecDir) == "" {
		return &ConfigurationError{Option: "spec_dir", Reason: "required"}
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigurationError{Option: "spec_endpoint", Reason: fmt.Sprintf("not an absolute URL: %q", c.Endpoint)}
		}
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			return &ConfigurationError{Option: "exclude", Reason: fmt.Sprintf("bad pattern %q", p)}
		}
	}
	return nil
}

// link builds the URL for a node id. Sections link to their index page.
func (c Config) link(id string, kind spec.Kind) string {
	if c.Endpoint == "" {
		return ""
	}
	base := strings.TrimRight(c.Endpoint, "/") + "/" + c.Branch() + "/"
	if kind == spec.KindSection {
		if id == "" {
			return base + "index.html"
		}
		return base + id + "/index.html"
	}
	return base + id + ".html"
}

// Factory creates a fresh collector.
type Factory func() Collector

// Registry maps collector type names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Builtin returns a registry holding the collectors shipped with speccov.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(SphinxType, NewSphinx)
	r.MustRegister(MarkdownType, NewMarkdown)
	return r
}

// Register adds a collector type. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("collector name must not be empty")
	}
	if f == nil {
		return fmt.Errorf("collector %q: nil factory", name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("collector %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Lookup creates the collector registered under name.
func (r *Registry) Lookup(name string) (Collector, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &ConfigurationError{
			Option: "sc-type",
			Reason: fmt.Sprintf("unknown collector %q (known: %s)", name, strings.Join(r.Names(), ", ")),
		}
	}
	return f(), nil
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
