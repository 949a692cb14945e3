package mapper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dkoosis/speccov/pkg/pattern"
	"github.com/dkoosis/speccov/pkg/testjson"
)

// FromTestJSON converts test results into visualization patterns.
// Returns: Summary + Table per broken package + Table for passing packages.
// Broken packages are listed panics first, then build errors, then packages
// that exited non-zero, then test failures.
func FromTestJSON(results []testjson.TestPackageResult) []pattern.Pattern {
	stats := testjson.ComputeStats(results)
	var patterns []pattern.Pattern

	// 1. Summary
	patterns = append(patterns, testSummary(stats))

	// Sort: panics first, then build errors, then failed, then passed
	sorted := make([]testjson.TestPackageResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		pi, pj := pkgPriority(sorted[i]), pkgPriority(sorted[j])
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Name < sorted[j].Name
	})

	// 2. Panic packages
	for _, r := range sorted {
		if r.Panicked {
			patterns = append(patterns, panicTable(r))
		}
	}

	// 3. Build error packages
	for _, r := range sorted {
		if r.BuildError != "" && !r.Panicked {
			patterns = append(patterns, buildErrorTable(r))
		}
	}

	// 4. Packages whose tests passed but the binary still failed
	for _, r := range sorted {
		if r.Exited {
			patterns = append(patterns, exitTable(r))
		}
	}

	// 5. Failed packages with test details
	for _, r := range sorted {
		if r.Failed > 0 && r.BuildError == "" && !r.Panicked {
			patterns = append(patterns, failedPkgTable(r))
		}
	}

	// 6. Passing packages, collapsed into one table
	var passRows []pattern.Row
	for _, r := range sorted {
		if r.Status() == "pass" {
			passRows = append(passRows, pattern.Row{
				Name:     shortPkgName(r.Name),
				Status:   pattern.StatusPassed,
				Duration: formatDuration(r.Duration),
				Tests:    r.TotalTests(),
			})
		}
	}
	if len(passRows) > 0 {
		patterns = append(patterns, &pattern.Table{
			Label: fmt.Sprintf("Passing Packages (%d)", len(passRows)),
			Rows:  passRows,
		})
	}

	return patterns
}

func testSummary(s testjson.Stats) *pattern.Summary {
	var metrics []pattern.Metric

	if s.Panics > 0 {
		metrics = append(metrics, pattern.Metric{
			Label: "Panics", Value: fmt.Sprintf("%d", s.Panics), Tone: pattern.ToneBad,
		})
	}
	if s.BuildErrors > 0 {
		metrics = append(metrics, pattern.Metric{
			Label: "Build Errors", Value: fmt.Sprintf("%d", s.BuildErrors), Tone: pattern.ToneBad,
		})
	}
	if s.Failed > 0 {
		metrics = append(metrics, pattern.Metric{
			Label: "Failed", Value: fmt.Sprintf("%d/%d tests", s.Failed, s.TotalTests), Tone: pattern.ToneBad,
		})
	}
	if s.Passed > 0 {
		tone := pattern.ToneGood
		if s.Failed > 0 {
			tone = pattern.ToneNeutral
		}
		metrics = append(metrics, pattern.Metric{
			Label: "Passed", Value: fmt.Sprintf("%d/%d tests", s.Passed, s.TotalTests), Tone: tone,
		})
	}
	if s.Skipped > 0 {
		metrics = append(metrics, pattern.Metric{
			Label: "Skipped", Value: fmt.Sprintf("%d", s.Skipped), Tone: pattern.ToneWarn,
		})
	}
	metrics = append(metrics, pattern.Metric{
		Label: "Packages", Value: fmt.Sprintf("%d", s.Packages), Tone: pattern.ToneNeutral,
	})

	label := fmt.Sprintf("PASS (%s)", formatDuration(s.Duration))
	if s.FailedPkgs > 0 {
		label = fmt.Sprintf("FAIL %d/%d tests, %d packages affected (%s)",
			s.Failed, s.TotalTests, s.FailedPkgs, formatDuration(s.Duration))
	}

	return &pattern.Summary{
		Label:   label,
		Kind:    pattern.SummaryKindTest,
		Metrics: metrics,
	}
}

func panicTable(r testjson.TestPackageResult) *pattern.Table {
	return &pattern.Table{
		Label: "PANIC " + shortPkgName(r.Name),
		Rows: []pattern.Row{{
			Name:    "PANIC",
			Status:  pattern.StatusFailed,
			Details: truncateLines(r.PanicOutput, 5),
		}},
	}
}

func exitTable(r testjson.TestPackageResult) *pattern.Table {
	details := truncateLines(r.ExitOutput, 5)
	if details == "" {
		details = "package failed after its tests passed"
	}
	return &pattern.Table{
		Label: "FAIL " + shortPkgName(r.Name),
		Rows: []pattern.Row{{
			Name:    "EXIT",
			Status:  pattern.StatusFailed,
			Details: details,
		}},
	}
}

func buildErrorTable(r testjson.TestPackageResult) *pattern.Table {
	rows := []pattern.Row{{
		Name:    "BUILD ERROR",
		Status:  pattern.StatusFailed,
		Details: truncateString(r.BuildError, 300),
	}}
	return &pattern.Table{
		Label: "BUILD FAIL " + shortPkgName(r.Name),
		Rows:  rows,
	}
}

func failedPkgTable(r testjson.TestPackageResult) *pattern.Table {
	rows := make([]pattern.Row, 0, r.Failed)
	for _, t := range r.Tests {
		if t.Status != testjson.StatusFail {
			continue
		}
		rows = append(rows, pattern.Row{
			Name:     t.Name,
			Status:   pattern.StatusFailed,
			Duration: formatDuration(t.Duration),
			Details:  truncateLines(t.Output, 3),
		})
	}
	return &pattern.Table{
		Label: fmt.Sprintf("FAIL %s (%d/%d failed)", shortPkgName(r.Name), r.Failed, r.TotalTests()),
		Rows:  rows,
	}
}

func pkgPriority(r testjson.TestPackageResult) int {
	switch {
	case r.Panicked:
		return 0
	case r.BuildError != "":
		return 1
	case r.Exited:
		return 2
	case r.Failed > 0:
		return 3
	}
	return 4
}

func shortPkgName(name string) string {
	// Strip common module prefix to show relative package path
	for _, prefix := range []string{"/internal/", "/cmd/", "/pkg/", "/examples/"} {
		if idx := strings.Index(name, prefix); idx != -1 {
			return name[idx+1:]
		}
	}
	parts := strings.Split(name, "/")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], "/")
	}
	return name
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func truncateLines(lines []string, limit int) string {
	if len(lines) <= limit {
		return strings.Join(lines, "\n")
	}
	result := strings.Join(lines[:limit], "\n")
	return result + fmt.Sprintf("\n... (%d more lines)", len(lines)-limit)
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
