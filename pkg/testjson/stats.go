package testjson

import (
	"time"

	"github.com/dkoosis/speccov/pkg/coverage"
)

// Stats holds aggregate statistics across all packages.
type Stats struct {
	TotalTests  int
	Passed      int
	Failed      int
	Skipped     int
	Packages    int
	FailedPkgs  int
	Duration    time.Duration
	BuildErrors int
	Panics      int
}

// ComputeStats aggregates statistics from package results.
func ComputeStats(results []TestPackageResult) Stats {
	var s Stats
	s.Packages = len(results)
	for _, r := range results {
		s.Passed += r.Passed
		s.Failed += r.Failed
		s.Skipped += r.Skipped
		s.TotalTests += r.TotalTests()
		if r.Duration > s.Duration {
			s.Duration = r.Duration
		}
		if r.Status() == "fail" {
			s.FailedPkgs++
		}
		if r.BuildError != "" {
			s.BuildErrors++
		}
		if r.Panicked {
			s.Panics++
		}
	}
	return s
}

// Executed returns the ids of top-level tests that reached a pass or fail
// verdict. Skipped tests did not execute.
func Executed(results []TestPackageResult) map[string]bool {
	ids := make(map[string]bool)
	for _, r := range results {
		for _, t := range r.Tests {
			if t.Executed() {
				ids[coverage.TestID(t.Package, t.Name)] = true
			}
		}
	}
	return ids
}

// Index maps test id to its result.
func Index(results []TestPackageResult) map[string]TestResult {
	idx := make(map[string]TestResult)
	for _, r := range results {
		for _, t := range r.Tests {
			idx[coverage.TestID(t.Package, t.Name)] = t
		}
	}
	return idx
}
