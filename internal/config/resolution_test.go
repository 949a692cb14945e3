package config

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dkoosis/speccov/pkg/collector"
	"github.com/dkoosis/speccov/pkg/coverage"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestResolveConfig_PriorityOrder(t *testing.T) {
	tests := []struct {
		name             string
		file             string
		flags            CliFlags
		env              map[string]string
		wantType         string
		wantTypeSource   string
		wantTarget       float64
		wantTargetSource string
	}{
		{
			name:             "defaults",
			wantTypeSource:   "default",
			wantTarget:       DefaultTarget,
			wantTargetSource: "default",
		},
		{
			name:             "file over defaults",
			file:             "type: sphinx\ntarget: 80\n",
			wantType:         "sphinx",
			wantTypeSource:   "file",
			wantTarget:       80,
			wantTargetSource: "file",
		},
		{
			name:             "env over file",
			file:             "type: sphinx\ntarget: 80\n",
			env:              map[string]string{EnvType: "markdown", EnvTarget: "60"},
			wantType:         "markdown",
			wantTypeSource:   "env",
			wantTarget:       60,
			wantTargetSource: "env",
		},
		{
			name:             "CLI over env",
			file:             "type: sphinx\n",
			flags:            CliFlags{Type: "custom", TypeSet: true, Target: 10, TargetSet: true},
			env:              map[string]string{EnvType: "markdown", EnvTarget: "60"},
			wantType:         "custom",
			wantTypeSource:   "cli",
			wantTarget:       10,
			wantTargetSource: "cli",
		},
		{
			name:             "explicit empty CLI type disables",
			file:             "type: sphinx\n",
			flags:            CliFlags{TypeSet: true},
			wantTypeSource:   "cli",
			wantTarget:       DefaultTarget,
			wantTargetSource: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := tt.flags
			flags.ConfigPath = writeFile(t, t.TempDir(), FileName, tt.file)

			got, err := ResolveConfig(flags, envMap(tt.env))
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantTypeSource, got.TypeSource)
			assert.InDelta(t, tt.wantTarget, got.Target, 0.001)
			assert.Equal(t, tt.wantTargetSource, got.TargetSource)
		})
	}
}

func TestResolveConfig_LintOnlyAndNoColor(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, "")

	got, err := ResolveConfig(CliFlags{ConfigPath: path}, envMap(map[string]string{EnvOnly: "1", EnvNoColor: "true"}))
	require.NoError(t, err)
	assert.True(t, got.LintOnly)
	assert.Equal(t, "env", got.OnlySource)
	assert.True(t, got.NoColor)

	got, err = ResolveConfig(CliFlags{ConfigPath: path, Only: false, OnlySet: true}, envMap(map[string]string{EnvOnly: "1"}))
	require.NoError(t, err)
	assert.False(t, got.LintOnly)
	assert.Equal(t, "cli", got.OnlySource)
}

func TestResolveConfig_CollectorOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, FileName, "type: sphinx\nspec_dir: specs\nbranch_env: CI_BRANCH\nallure_dir: out/allure\n")

	got, err := ResolveConfig(CliFlags{ConfigPath: path}, envMap(map[string]string{"CI_BRANCH": "release"}))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "specs"), got.Collector.SpecDir)
	assert.Equal(t, collector.DefaultBranch, got.Collector.DefaultBranch)
	assert.Equal(t, "release", got.Collector.Branch())
	assert.Equal(t, filepath.Join(dir, "out", "allure"), got.AllureDir)
	assert.Equal(t, coverage.SkippedExclude, got.Policy)
	assert.Equal(t, zapcore.WarnLevel, got.LogLevel)
}

func TestResolveConfig_EnvFileFeedsBranch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "BRANCH_NAME=feature-x\nALLURE_TESTPLAN_PATH=/tmp/plan.json\n")
	path := writeFile(t, dir, FileName, "spec_dir: specs\nenv_file: .env\n")

	got, err := ResolveConfig(CliFlags{ConfigPath: path}, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "feature-x", got.Collector.Branch())

	v, ok := got.Env("ALLURE_TESTPLAN_PATH")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/plan.json", v)

	got, err = ResolveConfig(CliFlags{ConfigPath: path}, envMap(map[string]string{"BRANCH_NAME": "main"}))
	require.NoError(t, err)
	assert.Equal(t, "main", got.Collector.Branch(), "process env wins over env_file")
}

func TestResolveConfig_Invalid(t *testing.T) {
	tests := map[string]struct {
		file   string
		flags  CliFlags
		env    map[string]string
		option string
	}{
		"target too high":  {flags: CliFlags{Target: 101, TargetSet: true}, option: "sc-target"},
		"negative target":  {file: "target: -1\n", option: "sc-target"},
		"NaN flag target":  {flags: CliFlags{Target: math.NaN(), TargetSet: true}, option: "sc-target"},
		"NaN env target":   {env: map[string]string{EnvTarget: "NaN"}, option: "sc-target"},
		"NaN file target":  {file: "target: .nan\n", option: "sc-target"},
		"bad env target":   {env: map[string]string{EnvTarget: "lots"}, option: EnvTarget},
		"bad policy":       {file: "skipped_policy: sometimes\n", option: "skipped_policy"},
		"bad format":       {flags: CliFlags{Format: "xml"}, option: "format"},
		"bad theme":        {flags: CliFlags{Theme: "neon"}, option: "theme"},
		"bad log level":    {flags: CliFlags{LogLevel: "loud"}, option: "log-level"},
		"bad run regexp":   {flags: CliFlags{Run: "("}, option: "run"},
		"missing env file": {file: "env_file: nope.env\n", option: "env_file"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			flags := tt.flags
			flags.ConfigPath = writeFile(t, t.TempDir(), FileName, tt.file)

			_, err := ResolveConfig(flags, envMap(tt.env))

			var cfgErr *collector.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}
}

func TestResolveConfig_RunRegexp(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, "")

	got, err := ResolveConfig(CliFlags{ConfigPath: path, Run: "^TestLogin$"}, envMap(nil))
	require.NoError(t, err)
	require.NotNil(t, got.Run)
	assert.True(t, got.Run.MatchString("TestLogin"))
}
