// Package testjson parses go test -json NDJSON streams into per-test outcomes.
package testjson

import (
	"strings"
	"time"
)

// Actions emitted by test2json that the aggregator acts on.
const (
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// Test outcome statuses.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, bench, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// TopLevel reports whether the event belongs to a top-level test rather than
// a subtest or the package itself.
func (e TestEvent) TopLevel() bool {
	return e.Test != "" && !strings.Contains(e.Test, "/")
}

// TestResult is the outcome of one top-level test.
type TestResult struct {
	Package  string
	Name     string
	Status   string // StatusPass, StatusFail or StatusSkip
	Start    time.Time
	Stop     time.Time
	Duration time.Duration
	Output   []string // output lines, kept for failures
}

// Executed reports whether the test actually ran to a verdict.
func (t TestResult) Executed() bool {
	return t.Status == StatusPass || t.Status == StatusFail
}

// TestPackageResult represents aggregated results for one package.
type TestPackageResult struct {
	Name       string
	Passed     int
	Failed     int
	Skipped    int
	Duration   time.Duration
	Tests      []TestResult
	BuildError string // non-empty if package failed to build

	// Panicked is set when the package output carries a panic trace.
	Panicked    bool
	PanicOutput []string
	// Exited is set when the package ended in fail although none of its
	// tests did, e.g. TestMain exiting non-zero or a leak check.
	Exited      bool
	ExitOutput  []string
}

// TotalTests returns the total number of top-level tests in this package.
func (r *TestPackageResult) TotalTests() int {
	return r.Passed + r.Failed + r.Skipped
}

// Status returns "pass", "fail", or "skip" for the package.
func (r *TestPackageResult) Status() string {
	if r.BuildError != "" || r.Panicked || r.Exited || r.Failed > 0 {
		return "fail"
	}
	if r.Passed == 0 && r.Skipped > 0 {
		return "skip"
	}
	return "pass"
}
