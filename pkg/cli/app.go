package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dkoosis/speccov/internal/config"
	"github.com/dkoosis/speccov/internal/detect"
	"github.com/dkoosis/speccov/pkg/allure"
	"github.com/dkoosis/speccov/pkg/collector"
	"github.com/dkoosis/speccov/pkg/mapper"
	"github.com/dkoosis/speccov/pkg/metrics"
	"github.com/dkoosis/speccov/pkg/pattern"
	"github.com/dkoosis/speccov/pkg/render"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/scenario"
	"github.com/dkoosis/speccov/pkg/session"
	"github.com/dkoosis/speccov/pkg/stream"
	"github.com/dkoosis/speccov/pkg/testjson"
)

// app runs one invocation against a resolved configuration.
type app struct {
	cfg   *config.ResolvedConfig
	std   streams
	hooks []Hook

	logger   *zap.Logger
	format   string
	renderer render.Renderer
}

func (a *app) run(ctx context.Context) (int, error) {
	a.logger = newLogger(a.std.err, a.cfg.LogLevel, !a.cfg.NoColor && isTTYWriter(a.std.err))
	defer func() { _ = a.logger.Sync() }()
	a.logger.Debug("resolved configuration",
		zap.String("config", a.cfg.ConfigPath),
		zap.String("type", a.cfg.Type), zap.String("type_source", a.cfg.TypeSource),
		zap.Bool("lint", a.cfg.LintOnly), zap.String("lint_source", a.cfg.OnlySource),
		zap.Float64("target", a.cfg.Target), zap.String("target_source", a.cfg.TargetSource))

	a.format = resolveFormat(a.cfg.Format, a.std.out)
	theme := render.ThemeByName(a.cfg.Theme)
	if a.cfg.NoColor {
		theme = render.MonoTheme()
	}
	width, _ := termSize(a.std.out)
	a.renderer = render.ForFormat(a.format, theme, width)

	reg := collector.Builtin()
	for _, h := range a.hooks {
		if err := h(reg); err != nil {
			return ExitConfig, fmt.Errorf("registry hook: %w", err)
		}
	}

	sess, err := session.New(session.Options{
		Type:     a.cfg.Type,
		Registry: reg,
		Config:   a.cfg.Collector,
		LintOnly: a.cfg.LintOnly,
		Target:   a.cfg.Target,
		Policy:   a.cfg.Policy,
		Labels:   a.cfg.Labels,
		RerunEnv: a.cfg.RerunEnv,
		Env:      a.cfg.Env,
		Printer:  a.print,
		Logger:   a.logger,
	})
	if err != nil {
		return ExitConfig, err
	}
	if err := sess.Start(); err != nil {
		return ExitConfig, err
	}
	if sess.Disabled() {
		a.logger.Info("no collector type configured, spec coverage disabled")
	}
	if err := sess.ObserveTestLinks(scenario.Observer{Dir: a.cfg.Tests}); err != nil {
		return ExitConfig, err
	}

	if a.cfg.LintOnly {
		return a.lint(sess)
	}
	return a.normal(ctx, sess)
}

// lint treats the tests selected by --run as executed and never reads results.
func (a *app) lint(sess *session.Session) (int, error) {
	if sess.Disabled() {
		return ExitOK, nil
	}
	if err := sess.Compute(scenario.Select(sess.Links(), a.cfg.Run)); err != nil {
		return ExitComputation, err
	}
	return sess.Lint(a.std.out)
}

// normal reads a go test -json run, reports coverage of the tests that
// executed, and exits with the run's own outcome.
func (a *app) normal(ctx context.Context, sess *session.Session) (int, error) {
	results, err := a.readResults(ctx, sess)
	if err != nil {
		return ExitConfig, err
	}
	patterns := mapper.FromTestJSON(results)

	if !sess.Disabled() {
		if err := sess.Compute(testjson.Executed(results)); err != nil {
			return ExitComputation, err
		}
		sinks := []session.ReportSink{a.allureWriter(results)}
		if a.cfg.MetricsFile != "" {
			sinks = append(sinks, metrics.NewCollector(a.cfg.MetricsFile))
		}
		if err := sess.Report(sinks...); err != nil {
			return ExitConfig, err
		}
		patterns = append(patterns, a.coveragePatterns(sess.Payload(), sess.Verdict())...)
	}

	if _, err := io.WriteString(a.std.out, a.renderer.Render(patterns)); err != nil {
		a.logger.Warn("writing output failed", zap.Error(err))
	}
	if testjson.ComputeStats(results).FailedPkgs > 0 {
		return ExitFailure, nil
	}
	return ExitOK, nil
}

func (a *app) allureWriter(results []testjson.TestPackageResult) *allure.Writer {
	w := allure.NewWriter(a.cfg.AllureDir, testjson.Index(results))
	w.LinkLabel = a.cfg.LinkLabel
	return w
}

// readResults loads the results stream. Reading stdin while stderr is a
// terminal shows live progress as the stream arrives.
func (a *app) readResults(ctx context.Context, sess *session.Session) ([]testjson.TestPackageResult, error) {
	var (
		src  io.Reader = a.std.in
		name           = "stdin"
	)
	if a.cfg.Results != "" {
		f, err := os.Open(a.cfg.Results)
		if err != nil {
			return nil, &collector.ConfigurationError{Option: "results", Reason: err.Error()}
		}
		defer f.Close()
		src, name = f, a.cfg.Results
	}

	var input []byte
	if a.cfg.Results == "" && a.format == "terminal" && isTTYWriter(a.std.err) {
		var buf bytes.Buffer
		width, height := termSize(a.std.err)
		totals, err := stream.Run(ctx, io.TeeReader(src, &buf), a.std.err, stream.Options{
			Width:     width,
			Height:    height,
			Scenarios: scenarios(sess),
		})
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		a.logger.Debug("streamed results", zap.Int("tests", totals.Tests()), zap.Int("linked", totals.Linked))
		input = buf.Bytes()
	} else {
		var err error
		if input, err = io.ReadAll(src); err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	switch f := detect.Sniff(input); f {
	case detect.GoTestJSON:
	case detect.Unknown:
		if len(bytes.TrimSpace(input)) == 0 {
			return nil, &collector.ConfigurationError{Option: "results", Reason: "no test results on " + name}
		}
		return nil, &collector.ConfigurationError{Option: "results", Reason: name + " is not go test -json output"}
	default:
		return nil, &collector.ConfigurationError{Option: "results",
			Reason: fmt.Sprintf("%s looks like %s, expected go test -json output", name, f)}
	}

	results, malformed, err := testjson.ParseContext(ctx, bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if malformed > 0 {
		a.logger.Warn("skipped malformed result lines", zap.Int("count", malformed))
	}
	return results, nil
}

// scenarios indexes the observed marks for the progress view.
func scenarios(sess *session.Session) map[string]string {
	m := make(map[string]string)
	for _, l := range sess.Links() {
		if l.Scenario != "" {
			m[l.TestID] = l.Scenario
		}
	}
	return m
}

func (a *app) coveragePatterns(p *report.Payload, v session.Verdict) []pattern.Pattern {
	return mapper.FromCoverage(p, v, mapper.Options{Tree: a.format == "terminal"})
}

// print is the session's lint Printer.
func (a *app) print(w io.Writer, p *report.Payload, v session.Verdict) error {
	_, err := io.WriteString(w, a.renderer.Render(a.coveragePatterns(p, v)))
	return err
}
