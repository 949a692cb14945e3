package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/dkoosis/speccov/pkg/allure"
	"github.com/dkoosis/speccov/pkg/collector"
	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/session"
)

// Environment variable names.
const (
	EnvType    = "SPECCOV_TYPE"
	EnvOnly    = "SPECCOV_ONLY"
	EnvTarget  = "SPECCOV_TARGET"
	EnvNoColor = "NO_COLOR"
)

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ResolvedConfig holds the final resolved configuration after applying all priority rules.
type ResolvedConfig struct {
	Type      string
	LintOnly  bool
	Target    float64
	Policy    coverage.SkippedPolicy
	Collector collector.Config

	Labels    []string
	LinkLabel string
	AllureDir string
	RerunEnv  string

	MetricsFile string
	Tests       string
	Run         *regexp.Regexp
	Results     string

	Format   string
	Theme    string
	NoColor  bool
	LogLevel zapcore.Level

	// Env is the process environment overlaid on env_file.
	Env LookupFunc

	// Resolution metadata (for debugging)
	ConfigPath    string
	TypeSource    string // "cli", "env", "file", "default"
	OnlySource    string // "cli", "env", "default"
	TargetSource  string // "cli", "env", "file", "default"
	NoColorSource string // "cli", "env", "default"
}

// ResolveConfig resolves configuration from all sources with explicit
// priority order. A nil lookup means os.LookupEnv. Invalid values are
// reported as *collector.ConfigurationError.
func ResolveConfig(flags CliFlags, lookup LookupFunc) (*ResolvedConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	appCfg, path, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	env, err := overlayEnvFile(lookup, appCfg.resolvePath(appCfg.EnvFile))
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedConfig{
		Type:          appCfg.Type,
		Target:        DefaultTarget,
		Labels:        appCfg.AllureLabels,
		LinkLabel:     firstNonEmpty(appCfg.LinkLabel, allure.DefaultLinkLabel),
		AllureDir:     firstNonEmpty(flags.AllureDir, appCfg.resolvePath(appCfg.AllureDir), DefaultAllureDir),
		RerunEnv:      firstNonEmpty(appCfg.RerunEnv, session.DefaultRerunEnv),
		MetricsFile:   firstNonEmpty(flags.MetricsFile, appCfg.resolvePath(appCfg.MetricsFile)),
		Tests:         firstNonEmpty(flags.Tests, DefaultTestsDir),
		Results:       flags.Results,
		Format:        firstNonEmpty(flags.Format, appCfg.Format, DefaultFormat),
		Theme:         firstNonEmpty(flags.Theme, appCfg.Theme, DefaultTheme),
		Env:           env,
		ConfigPath:    path,
		TypeSource:    "default",
		OnlySource:    "default",
		TargetSource:  "default",
		NoColorSource: "default",
		Collector: collector.Config{
			SpecDir:       appCfg.resolvePath(appCfg.SpecDir),
			Endpoint:      appCfg.SpecEndpoint,
			DefaultBranch: firstNonEmpty(appCfg.DefaultBranch, collector.DefaultBranch),
			BranchEnv:     firstNonEmpty(appCfg.BranchEnv, collector.DefaultBranchEnv),
			Exclude:       appCfg.Exclude,
			Env:           env,
		},
	}
	if appCfg.Type != "" {
		resolved.TypeSource = "file"
	}
	if appCfg.Target != nil {
		resolved.Target = *appCfg.Target
		resolved.TargetSource = "file"
	}

	// Resolve Type with priority: CLI > ENV > file > default
	if flags.TypeSet {
		resolved.Type = flags.Type
		resolved.TypeSource = "cli"
	} else if v, ok := lookup(EnvType); ok {
		resolved.Type = strings.TrimSpace(v)
		resolved.TypeSource = "env"
	}

	// Resolve LintOnly with priority: CLI > ENV > default
	if flags.OnlySet {
		resolved.LintOnly = flags.Only
		resolved.OnlySource = "cli"
	} else if b := getEnvBool(lookup, EnvOnly); b != nil {
		resolved.LintOnly = *b
		resolved.OnlySource = "env"
	}

	// Resolve Target with priority: CLI > ENV > file > default
	if flags.TargetSet {
		resolved.Target = flags.Target
		resolved.TargetSource = "cli"
	} else if v, ok := lookup(EnvTarget); ok && v != "" {
		t, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &collector.ConfigurationError{Option: EnvTarget, Reason: fmt.Sprintf("not a number: %q", v)}
		}
		resolved.Target = t
		resolved.TargetSource = "env"
	}

	// Resolve NoColor with priority: CLI > ENV > default
	if flags.NoColorSet {
		resolved.NoColor = flags.NoColor
		resolved.NoColorSource = "cli"
	} else if b := getEnvBool(lookup, EnvNoColor); b != nil {
		resolved.NoColor = *b
		resolved.NoColorSource = "env"
	}

	if resolved.Policy, err = coverage.ParseSkippedPolicy(appCfg.SkippedPolicy); err != nil {
		return nil, &collector.ConfigurationError{Option: "skipped_policy", Reason: err.Error()}
	}
	if resolved.LogLevel, err = zapcore.ParseLevel(firstNonEmpty(flags.LogLevel, DefaultLogLevel)); err != nil {
		return nil, &collector.ConfigurationError{Option: "log-level", Reason: err.Error()}
	}
	if flags.Run != "" {
		if resolved.Run, err = regexp.Compile(flags.Run); err != nil {
			return nil, &collector.ConfigurationError{Option: "run", Reason: err.Error()}
		}
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// overlayEnvFile returns a lookup that prefers the process environment and
// falls back to the dotenv file at path.
func overlayEnvFile(lookup LookupFunc, path string) (LookupFunc, error) {
	if path == "" {
		return lookup, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, &collector.ConfigurationError{Option: "env_file", Reason: err.Error()}
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(lookup LookupFunc, keys ...string) *bool {
	for _, key := range keys {
		if val, ok := lookup(key); ok && val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

var (
	validFormats = map[string]bool{"auto": true, "terminal": true, "llm": true, "json": true}
	validThemes  = map[string]bool{"default": true, "orca": true, "mono": true}
)

// validateResolvedConfig checks option values. Collector options are left to
// the collector's own Validate.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	if math.IsNaN(cfg.Target) || cfg.Target < 0 || cfg.Target > 100 {
		return &collector.ConfigurationError{Option: "sc-target", Reason: fmt.Sprintf("%g is outside 0-100", cfg.Target)}
	}
	if !validFormats[cfg.Format] {
		return &collector.ConfigurationError{Option: "format",
			Reason: fmt.Sprintf("invalid value %q (must be: auto, terminal, llm, json)", cfg.Format)}
	}
	if !validThemes[cfg.Theme] {
		return &collector.ConfigurationError{Option: "theme",
			Reason: fmt.Sprintf("invalid value %q (must be: default, orca, mono)", cfg.Theme)}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
