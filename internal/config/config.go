package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/speccov/pkg/collector"
)

// FileName is the project configuration file searched for by LoadConfig.
const FileName = ".speccov.yaml"

// Constants for default values.
const (
	DefaultTarget    = 100.0
	DefaultAllureDir = "allure-results"
	DefaultFormat    = "auto"
	DefaultTheme     = "default"
	DefaultLogLevel  = "warn"
	DefaultTestsDir  = "."
)

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ConfigPath  string
	Type        string
	Only        bool
	Target      float64
	Tests       string
	Run         string
	Results     string
	AllureDir   string
	MetricsFile string
	Format      string
	Theme       string
	LogLevel    string
	NoColor     bool

	// Flags to track if they were explicitly set by the user
	TypeSet    bool
	OnlySet    bool
	TargetSet  bool
	NoColorSet bool
}

// AppConfig represents the contents of .speccov.yaml.
type AppConfig struct {
	Type          string   `yaml:"type"`
	Target        *float64 `yaml:"target"`
	SpecDir       string   `yaml:"spec_dir"`
	SpecEndpoint  string   `yaml:"spec_endpoint"`
	DefaultBranch string   `yaml:"default_branch"`
	BranchEnv     string   `yaml:"branch_env"`
	Exclude       []string `yaml:"exclude"`
	EnvFile       string   `yaml:"env_file"`
	AllureLabels  []string `yaml:"allure_labels"`
	AllureDir     string   `yaml:"allure_dir"`
	LinkLabel     string   `yaml:"link_label"`
	RerunEnv      string   `yaml:"rerun_env"`
	SkippedPolicy string   `yaml:"skipped_policy"`
	MetricsFile   string   `yaml:"metrics_file"`
	Theme         string   `yaml:"theme"`
	Format        string   `yaml:"format"`

	// dir is the directory of the file the config was read from.
	dir string
}

// LoadConfig reads the configuration file. An explicit path must exist;
// otherwise FileName is searched for from the working directory upward and
// a missing file yields an empty config. The returned string is the path
// read, or "" when none was found.
func LoadConfig(path string) (*AppConfig, string, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		path = FindConfig(wd)
		if path == "" {
			return &AppConfig{}, "", nil
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 - user-selected config file
	if err != nil {
		return nil, path, &collector.ConfigurationError{Option: "config", Reason: err.Error()}
	}
	cfg, err := parse(bytes.NewReader(data))
	if err != nil {
		return nil, path, &collector.ConfigurationError{Option: "config",
			Reason: fmt.Sprintf("%s: %v", path, err)}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, path, err
	}
	cfg.dir = filepath.Dir(abs)
	return cfg, path, nil
}

// parse decodes YAML, rejecting unknown keys so typos surface early.
func parse(r io.Reader) (*AppConfig, error) {
	var cfg AppConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig returns the nearest FileName at or above dir, or "".
func FindConfig(dir string) string {
	for cur := dir; ; {
		candidate := filepath.Join(cur, FileName)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}

// resolvePath makes p relative to the config file's directory.
func (c *AppConfig) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
