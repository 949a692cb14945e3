// Package stream renders a live progress view of go test -json output,
// tagging each finished top-level test with the spec it covers.
package stream

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/testjson"
)

// LineKind identifies the type of output line for styling.
type LineKind int

const (
	KindPass LineKind = iota
	KindFail
	KindSkip
	KindPkgPass
	KindPkgFail
	KindOutput
	KindSeparator
)

// StyleFunc formats a line with colors/symbols.
// If nil, no styling is applied.
type StyleFunc func(kind LineKind, text string) string

// Options configures Run.
type Options struct {
	Width  int
	Height int
	Style  StyleFunc
	// Scenarios maps test id to the scenario its mark declares.
	Scenarios map[string]string
}

// Totals is what the stream saw once input ends.
type Totals struct {
	Passed   int
	Failed   int
	Skipped  int
	Packages int
	// Linked counts executed tests that carry a scenario mark.
	Linked    int
	HasFailed bool
}

// Tests is the number of top-level tests that finished.
func (t Totals) Tests() int { return t.Passed + t.Failed + t.Skipped }

// pkgProgress tracks state for one active package.
type pkgProgress struct {
	name        string
	short       string
	startTime   time.Time
	finished    int
	passed      int
	failed      int
	skipped     int
	currentTest string
}

type streamer struct {
	tw        *termWriter
	style     StyleFunc
	scenarios map[string]string

	active map[string]*pkgProgress
	order  []string

	outputBuf map[string][]string // keyed by "pkg\x00test"

	totals      Totals
	maxDuration float64
}

func newStreamer(tw *termWriter, opts Options) *streamer {
	return &streamer{
		tw:        tw,
		style:     opts.Style,
		scenarios: opts.Scenarios,
		active:    make(map[string]*pkgProgress),
		outputBuf: make(map[string][]string),
	}
}

func shortPkg(pkg string) string {
	if i := strings.LastIndex(pkg, "/"); i >= 0 {
		return pkg[i+1:]
	}
	return pkg
}

func bufKey(pkg, test string) string {
	return pkg + "\x00" + test
}

func (s *streamer) styleLine(kind LineKind, text string) string {
	if s.style != nil {
		return s.style(kind, text)
	}
	return text
}

// handleEvent dispatches one event. Subtest events only feed output buffers.
func (s *streamer) handleEvent(e testjson.TestEvent) {
	switch {
	case e.Action == "start":
		s.handleStart(e)
	case e.Action == testjson.ActionOutput:
		s.handleOutput(e)
	case e.Test == "":
		switch e.Action {
		case testjson.ActionPass, testjson.ActionSkip:
			s.handlePkgDone(e, false)
		case testjson.ActionFail:
			s.handlePkgDone(e, true)
		}
	case !e.TopLevel():
		// subtests are not coverage units
	case e.Action == testjson.ActionRun:
		if pkg, ok := s.active[e.Package]; ok {
			pkg.currentTest = e.Test
		}
	case e.Action == testjson.ActionPass, e.Action == testjson.ActionFail, e.Action == testjson.ActionSkip:
		s.handleTestDone(e)
	}

	s.redrawFooter()
}

func (s *streamer) handleStart(e testjson.TestEvent) {
	if _, ok := s.active[e.Package]; ok {
		return
	}
	s.active[e.Package] = &pkgProgress{
		name:      e.Package,
		short:     shortPkg(e.Package),
		startTime: e.Time,
	}
	s.order = append(s.order, e.Package)
}

func (s *streamer) handleTestDone(e testjson.TestEvent) {
	pkg, ok := s.active[e.Package]
	if !ok {
		s.handleStart(e)
		pkg = s.active[e.Package]
	}
	pkg.finished++

	var (
		kind   LineKind
		symbol string
	)
	switch e.Action {
	case testjson.ActionPass:
		pkg.passed++
		kind, symbol = KindPass, "·"
	case testjson.ActionFail:
		pkg.failed++
		s.totals.HasFailed = true
		kind, symbol = KindFail, "✗"
	default:
		pkg.skipped++
		kind, symbol = KindSkip, "○"
	}

	line := fmt.Sprintf("  %-10s %s %-40s", pkg.short, symbol, e.Test)
	if e.Action != testjson.ActionSkip {
		line += fmt.Sprintf(" %5.2fs", e.Elapsed)
		if sc := s.scenarios[coverage.TestID(e.Package, e.Test)]; sc != "" {
			s.totals.Linked++
			line += "  → " + sc
		}
	}
	s.tw.EraseFooter()
	s.tw.PrintLine(s.styleLine(kind, line))

	key := bufKey(e.Package, e.Test)
	if e.Action == testjson.ActionFail {
		s.flush(key)
	}
	delete(s.outputBuf, key)
}

func (s *streamer) handlePkgDone(e testjson.TestEvent, failed bool) {
	pkg, ok := s.active[e.Package]
	if !ok {
		return
	}
	kind, symbol := KindPkgPass, "✓"
	if failed {
		s.totals.HasFailed = true
		kind, symbol = KindPkgFail, "✗"
	}
	total := pkg.passed + pkg.failed + pkg.skipped
	line := fmt.Sprintf("  %s %-28s %d/%d  %.1fs", symbol, pkg.short, pkg.passed, total, e.Elapsed)
	s.tw.EraseFooter()
	s.tw.PrintLine(s.styleLine(kind, line))
	if failed {
		s.flush(bufKey(e.Package, ""))
	}

	s.totals.Passed += pkg.passed
	s.totals.Failed += pkg.failed
	s.totals.Skipped += pkg.skipped
	s.totals.Packages++
	s.maxDuration = max(s.maxDuration, e.Elapsed)

	delete(s.active, e.Package)
}

// flush prints buffered output for key, minus go test boilerplate.
func (s *streamer) flush(key string) {
	lines, ok := s.outputBuf[key]
	if !ok {
		return
	}
	for _, l := range lines {
		if isBoilerplate(l) {
			continue
		}
		s.tw.PrintLine(s.styleLine(KindOutput, "             "+l))
	}
	delete(s.outputBuf, key)
}

func (s *streamer) handleOutput(e testjson.TestEvent) {
	output := strings.TrimRight(e.Output, "\n")
	if output == "" {
		return
	}

	// subtest output is attributed to its top-level test
	test := e.Test
	if i := strings.Index(test, "/"); i >= 0 {
		test = test[:i]
	}
	key := bufKey(e.Package, test)
	s.outputBuf[key] = append(s.outputBuf[key], output)

	if test == "" && (strings.Contains(output, "panic:") || strings.HasPrefix(output, "goroutine ")) {
		s.tw.EraseFooter()
		s.tw.PrintLine(s.styleLine(KindOutput, "  "+output))
	}
}

func isBoilerplate(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "=== RUN") ||
		strings.HasPrefix(trimmed, "=== PAUSE") ||
		strings.HasPrefix(trimmed, "=== CONT") ||
		strings.HasPrefix(trimmed, "--- FAIL") ||
		strings.HasPrefix(trimmed, "--- PASS")
}

// redrawFooter rebuilds the active-packages footer.
func (s *streamer) redrawFooter() {
	if len(s.active) == 0 {
		return
	}

	lines := []string{"  ─── active " + strings.Repeat("─", 37)}
	now := time.Now()
	for _, name := range s.order {
		pkg, ok := s.active[name]
		if !ok {
			continue
		}
		elapsed := 0.0
		if !pkg.startTime.IsZero() {
			elapsed = now.Sub(pkg.startTime).Seconds()
		}
		testName := pkg.currentTest
		if len(testName) > 25 {
			testName = testName[:22] + "..."
		}
		lines = append(lines, fmt.Sprintf("  %-7s [%d] %-25s %5.1fs", pkg.short, pkg.finished, testName, elapsed))
	}

	s.tw.DrawFooter(lines)
}

// finish erases the footer and prints the final summary line.
func (s *streamer) finish() Totals {
	s.tw.EraseFooter()
	s.tw.PrintLine(s.styleLine(KindSeparator, "  "+strings.Repeat("─", 45)))

	t := s.totals
	linked := fmt.Sprintf("%d linked to specs", t.Linked)
	if t.HasFailed {
		s.tw.PrintLine(s.styleLine(KindFail, fmt.Sprintf("  FAIL (%.1fs) %d/%d tests, %d packages, %s",
			s.maxDuration, t.Failed, t.Tests(), t.Packages, linked)))
	} else {
		s.tw.PrintLine(s.styleLine(KindPass, fmt.Sprintf("  PASS (%.1fs) %d tests, %d packages, %s",
			s.maxDuration, t.Tests(), t.Packages, linked)))
	}
	return t
}

// Run reads go test -json events from r and renders progress to out until r
// is exhausted or ctx is cancelled. The returned error is the context error
// or a read error; Totals are valid either way.
func Run(ctx context.Context, r io.Reader, out io.Writer, opts Options) (Totals, error) {
	s := newStreamer(newTermWriter(out, opts.Width, opts.Height), opts)

	_, err := testjson.Stream(ctx, r, s.handleEvent)
	return s.finish(), err
}
