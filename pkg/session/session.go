// Package session drives one collect, link, compute and report pass.
//
// Lifecycle:
//
//	Idle -> Collecting -> AwaitingTestLinks -> Computing -> Reported
//	                                                    \-> Exited (lint mode)
//
// With no collector type configured the session is disabled: Start moves
// straight to Exited and every later call is a no-op.
package session

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dkoosis/speccov/pkg/collector"
	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/spec"
)

// DefaultRerunEnv is set by Allure TestOps when it launches a partial re-run.
const DefaultRerunEnv = "ALLURE_TESTPLAN_PATH"

// Lint exit codes.
const (
	ExitOK          = 0
	ExitBelowTarget = 1
)

// LinkObserver yields the scenario link declared by every collected test.
type LinkObserver interface {
	ObserveTestLinks() ([]coverage.TestLink, error)
}

// ReportSink receives the payload in normal mode.
type ReportSink interface {
	Name() string
	Write(p *report.Payload) error
}

// Printer writes the lint summary.
type Printer func(w io.Writer, p *report.Payload, v Verdict) error

// Options configures a Session.
type Options struct {
	// Type selects the collector; empty disables the session.
	Type     string
	Registry *collector.Registry
	Config   collector.Config

	LintOnly bool
	Target   float64 // 0-100
	Policy   coverage.SkippedPolicy
	Labels   []string

	RerunEnv string
	Env      func(string) (string, bool)

	Printer Printer
	Logger  *zap.Logger
}

// Verdict is the lint decision.
type Verdict struct {
	Score  float64
	Target float64
	Policy coverage.SkippedPolicy
	Pass   bool
}

// Session holds the state of one run. It is not safe for concurrent use.
type Session struct {
	opts   Options
	logger *zap.Logger
	state  State

	coll     collector.Collector
	root     *spec.Node
	links    []coverage.TestLink
	observed bool
	result   *coverage.Result
	payload  *report.Payload
	rerun    bool
}

// New resolves the collector type and validates its options. Configuration
// problems surface here, before anything is collected.
func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Env == nil {
		opts.Env = os.LookupEnv
	}
	if opts.RerunEnv == "" {
		opts.RerunEnv = DefaultRerunEnv
	}
	if opts.Printer == nil {
		opts.Printer = PlainPrinter
	}
	s := &Session{opts: opts, logger: opts.Logger.Named("session")}
	if s.Disabled() {
		return s, nil
	}

	if math.IsNaN(opts.Target) || opts.Target < 0 || opts.Target > 100 {
		return nil, &collector.ConfigurationError{Option: "sc-target",
			Reason: fmt.Sprintf("%g is outside 0-100", opts.Target)}
	}
	reg := opts.Registry
	if reg == nil {
		reg = collector.Builtin()
	}
	c, err := reg.Lookup(opts.Type)
	if err != nil {
		return nil, err
	}
	if opts.Config.Env == nil {
		s.opts.Config.Env = opts.Env
	}
	if opts.Config.Logger == nil {
		s.opts.Config.Logger = opts.Logger.Named("collector")
	}
	if err := c.Validate(s.opts.Config); err != nil {
		return nil, err
	}
	s.coll = c
	return s, nil
}

// Disabled reports whether no collector type was configured.
func (s *Session) Disabled() bool { return s.opts.Type == "" }

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Start collects the spec tree. A collector failure ends the session.
func (s *Session) Start() error {
	if s.Disabled() {
		if s.state == Idle {
			return s.moveTo(Exited)
		}
		return nil
	}
	if err := s.moveTo(Collecting); err != nil {
		return err
	}

	root, err := s.coll.Collect(s.opts.Config)
	if err != nil {
		s.state = Exited
		return err
	}
	s.root = root
	s.logger.Info("collected spec tree",
		zap.String("type", s.opts.Type),
		zap.Int("leaves", len(root.Leaves())))
	return s.moveTo(AwaitingTestLinks)
}

// ObserveTestLinks records the links of every collected test. It may be
// called once.
func (s *Session) ObserveTestLinks(obs LinkObserver) error {
	if s.Disabled() {
		return nil
	}
	if err := s.require(AwaitingTestLinks, "ObserveTestLinks"); err != nil {
		return err
	}
	if s.observed {
		return fmt.Errorf("%w: test links already observed", ErrInvalidTransition)
	}
	links, err := obs.ObserveTestLinks()
	if err != nil {
		s.state = Exited
		return err
	}
	s.links = links
	s.observed = true
	s.logger.Debug("observed test links", zap.Int("tests", len(links)))
	return nil
}

// Compute joins the links against the tree. executed holds the ids of tests
// that ran; in lint mode it is the selected set.
func (s *Session) Compute(executed map[string]bool) error {
	if s.Disabled() {
		return nil
	}
	if err := s.require(AwaitingTestLinks, "Compute"); err != nil {
		return err
	}
	if err := s.moveTo(Computing); err != nil {
		return err
	}

	res, err := coverage.Compute(s.root, s.links, executed)
	if err != nil {
		s.state = Exited
		return err
	}
	s.result = res
	s.payload = report.Build(s.root, res, s.opts.Labels)

	for _, o := range res.Orphans {
		s.logger.Warn("test links unknown spec",
			zap.String("test", o.TestID), zap.String("scenario", o.Scenario))
	}
	if ids := res.OrphanScenarios(); len(ids) > 0 {
		s.logger.Warn("links name specs missing from the tree",
			zap.Int("links", len(res.Orphans)), zap.Strings("scenarios", ids))
	}
	if n := len(res.Unlinked); n > 0 {
		s.logger.Warn("tests without a scenario mark", zap.Int("count", n),
			zap.Strings("tests", res.Unlinked))
	}
	s.logger.Info("computed coverage",
		zap.Float64("percent", res.Percent),
		zap.Int("covered", len(res.Covered)),
		zap.Int("uncovered", len(res.Uncovered)),
		zap.Int("skipped", len(res.Skipped)))
	return nil
}

// Verdict scores the result against the target under the skipped policy.
func (s *Session) Verdict() Verdict {
	v := Verdict{Target: s.opts.Target, Policy: s.opts.Policy, Pass: true, Score: 100}
	if s.result == nil {
		return v
	}
	v.Score = s.result.Score(s.opts.Policy)
	v.Pass = coverage.Passes(v.Score, v.Target)
	return v
}

// Lint prints the summary to w and ends the session. It returns ExitOK when
// coverage meets the target and ExitBelowTarget otherwise. Calling it out of
// order is an ErrInvalidTransition, not a verdict.
func (s *Session) Lint(w io.Writer) (int, error) {
	if s.Disabled() {
		return ExitOK, nil
	}
	if err := s.require(Computing, "Lint"); err != nil {
		return ExitOK, err
	}
	v := s.Verdict()
	s.logger.Info("lint verdict", zap.Object("verdict", v))
	if err := s.opts.Printer(w, s.payload, v); err != nil {
		s.logger.Warn("printing summary failed", zap.Error(err))
	}
	_ = s.moveTo(Exited)
	if !v.Pass {
		return ExitBelowTarget, nil
	}
	return ExitOK, nil
}

// Report hands the payload to each sink, unless this is a partial re-run.
// Every sink is attempted; their errors are joined.
func (s *Session) Report(sinks ...ReportSink) error {
	if s.Disabled() {
		return nil
	}
	if err := s.require(Computing, "Report"); err != nil {
		return err
	}
	if s.opts.LintOnly {
		return fmt.Errorf("%w: Report in lint mode", ErrInvalidTransition)
	}
	if err := s.moveTo(Reported); err != nil {
		return err
	}

	if v, ok := s.opts.Env(s.opts.RerunEnv); ok && v != "" {
		s.rerun = true
		s.logger.Info("partial re-run detected, skipping report", zap.String("env", s.opts.RerunEnv))
		return nil
	}

	var errs []error
	for _, sink := range sinks {
		if err := sink.Write(s.payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		s.logger.Debug("report written", zap.String("sink", sink.Name()))
	}
	return errors.Join(errs...)
}

// Rerun reports whether Report skipped the sinks.
func (s *Session) Rerun() bool { return s.rerun }

// Links returns the observed test links.
func (s *Session) Links() []coverage.TestLink { return s.links }

// Result returns the computed coverage.
func (s *Session) Result() *coverage.Result { return s.result }

// Payload returns the built report.
func (s *Session) Payload() *report.Payload { return s.payload }

func zapState(key string, st State) zap.Field {
	return zap.Stringer(key, st)
}

// MarshalLogObject lets a verdict be logged as a structured field.
func (v Verdict) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("score", v.Score)
	enc.AddFloat64("target", v.Target)
	enc.AddString("policy", string(v.Policy))
	enc.AddBool("pass", v.Pass)
	return nil
}
