// Package cli wires configuration, the coverage session and output into the
// speccov command.
//
// Usage:
//
//	speccov --sc-type sphinx --sc-only               # lint: fail below target
//	go test -json ./... | speccov --sc-type markdown # report on a real run
//
// Exit codes: 0 success, 1 coverage below target in lint mode or failing
// tests in normal mode, 2 configuration or collector failure, 3 computation
// failure.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dkoosis/speccov/internal/config"
	"github.com/dkoosis/speccov/internal/version"
	"github.com/dkoosis/speccov/pkg/collector"
	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/session"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfig      = 2
	ExitComputation = 3
)

// Hook extends the collector registry before the collector type is resolved.
type Hook func(reg *collector.Registry) error

// Run executes speccov with args (without the program name) and returns the
// process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer, hooks ...Hook) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, args, streams{in: stdin, out: stdout, err: stderr}, os.LookupEnv, hooks)
}

type streams struct {
	in       io.Reader
	out, err io.Writer
}

func run(ctx context.Context, args []string, std streams, env config.LookupFunc, hooks []Hook) int {
	code := ExitOK
	root := newRootCmd(std, env, hooks, &code)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(std.err, "speccov: %v\n", err)
		return exitCode(err)
	}
	return code
}

func newRootCmd(std streams, env config.LookupFunc, hooks []Hook, code *int) *cobra.Command {
	var flags config.CliFlags

	cmd := &cobra.Command{
		Use:   "speccov",
		Short: "Measure how much of a specification tree is covered by tests",
		Long: `speccov collects a tree of specification documents, reads the
"// Scenario: <id>" marks on Go tests and reports which specs are covered
by tests that actually ran.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			flags.TypeSet = fs.Changed("sc-type")
			flags.OnlySet = fs.Changed("sc-only")
			flags.TargetSet = fs.Changed("sc-target")
			flags.NoColorSet = fs.Changed("no-color")

			cfg, err := config.ResolveConfig(flags, env)
			if err != nil {
				return err
			}
			a := &app{cfg: cfg, std: std, hooks: hooks}
			*code, err = a.run(cmd.Context())
			return err
		},
	}
	cmd.SetIn(std.in)
	cmd.SetOut(std.out)
	cmd.SetErr(std.err)

	fs := cmd.Flags()
	fs.StringVar(&flags.Type, "sc-type", "", "spec collector type (sphinx, markdown); empty disables coverage")
	fs.BoolVar(&flags.Only, "sc-only", false, "lint mode: compute coverage without test results and fail below target")
	fs.Float64Var(&flags.Target, "sc-target", config.DefaultTarget, "coverage target percentage (0-100)")
	fs.StringVar(&flags.ConfigPath, "config", "", "path to "+config.FileName+" (default: search upward from cwd)")
	fs.StringVar(&flags.Tests, "tests", "", "root of the Go test sources to scan (default .)")
	fs.StringVar(&flags.Run, "run", "", "lint mode: regexp selecting top-level tests, as go test -run")
	fs.StringVar(&flags.Results, "results", "", "go test -json results file (default stdin)")
	fs.StringVar(&flags.AllureDir, "allure-dir", "", "directory for Allure result files (default "+config.DefaultAllureDir+")")
	fs.StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus gauges to this textfile")
	fs.StringVar(&flags.Format, "format", "", "output format: auto, terminal, llm, json")
	fs.StringVar(&flags.Theme, "theme", "", "terminal theme: default, orca, mono")
	fs.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	fs.BoolVar(&flags.NoColor, "no-color", false, "disable colors")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})
	return cmd
}

// exitCode maps an error to its exit code. Everything that is not a
// computation failure is a configuration problem: bad options, an unreadable
// spec source, malformed marks or unusable test results.
func exitCode(err error) int {
	var compErr *coverage.ComputationError
	if errors.As(err, &compErr) || errors.Is(err, session.ErrInvalidTransition) {
		return ExitComputation
	}
	return ExitConfig
}
