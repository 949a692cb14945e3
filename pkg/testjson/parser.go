package testjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// maxLine bounds a single NDJSON line; verbose test output can be long.
const maxLine = 1024 * 1024

// ProcessFunc receives each decoded event from Stream.
type ProcessFunc func(TestEvent)

// ParseStream parses go test -json NDJSON from a reader, line by line.
// Returns the parsed results, the number of malformed lines skipped, and any error.
func ParseStream(r io.Reader) ([]TestPackageResult, int, error) {
	return ParseContext(context.Background(), r)
}

// ParseContext is ParseStream with cancellation.
func ParseContext(ctx context.Context, r io.Reader) ([]TestPackageResult, int, error) {
	agg := newAggregator()
	malformed, err := Stream(ctx, r, agg.processEvent)
	if err != nil {
		return nil, malformed, fmt.Errorf("scanning test output: %w", err)
	}
	return agg.results(), malformed, nil
}

// scanResult carries a scanned line or terminal error from the scanner goroutine.
type scanResult struct {
	line []byte
	err  error
}

// Stream parses go test -json events line by line and calls fn for each one.
// Stops on EOF or when ctx is cancelled. Returns the number of malformed lines
// skipped and any error.
//
// On cancel, Stream closes r if it implements io.Closer to unblock the
// scanner goroutine. Otherwise the caller must close the underlying reader.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			cp := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- scanResult{line: cp}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- scanResult{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	var malformed int
	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return malformed, ctx.Err()
		case res, ok := <-lines:
			if !ok {
				return malformed, nil
			}
			if res.err != nil {
				return malformed, res.err
			}
			if len(res.line) == 0 {
				continue
			}
			var event TestEvent
			if err := json.Unmarshal(res.line, &event); err != nil {
				malformed++
				continue
			}
			fn(event)
		}
	}
}

type aggregator struct {
	packages map[string]*pkgState
	order    []string
}

type pkgState struct {
	name      string
	duration  time.Duration
	tests     map[string]*TestResult
	testOrder []string
	done      bool
	failed    bool
	// output per test; "" holds package-level output
	outputBuf   map[string][]string
	panicked    bool
	panicOutput []string
}

func newAggregator() *aggregator {
	return &aggregator{packages: make(map[string]*pkgState)}
}

func (a *aggregator) getOrCreate(name string) *pkgState {
	if pkg, ok := a.packages[name]; ok {
		return pkg
	}
	pkg := &pkgState{
		name:      name,
		tests:     make(map[string]*TestResult),
		outputBuf: make(map[string][]string),
	}
	a.packages[name] = pkg
	a.order = append(a.order, name)
	return pkg
}

func (a *aggregator) processEvent(e TestEvent) {
	pkg := a.getOrCreate(e.Package)
	if e.Action == ActionOutput {
		pkg.detectPanic(e.Output)
	}

	if e.Test == "" {
		switch e.Action {
		case ActionPass, ActionFail, ActionSkip:
			pkg.done = true
			pkg.failed = e.Action == ActionFail
			pkg.duration = seconds(e.Elapsed)
		case ActionOutput:
			pkg.appendOutput("", e.Output)
		}
		return
	}
	if !e.TopLevel() {
		return
	}

	switch e.Action {
	case ActionRun:
		pkg.test(e.Test).Start = e.Time
	case ActionOutput:
		pkg.appendOutput(e.Test, e.Output)
	case ActionPass, ActionFail, ActionSkip:
		ts := pkg.test(e.Test)
		ts.Status = strings.ToUpper(e.Action)
		ts.Stop = e.Time
		ts.Duration = seconds(e.Elapsed)
		if ts.Start.IsZero() && !e.Time.IsZero() {
			ts.Start = e.Time.Add(-ts.Duration)
		}
		if e.Action == ActionFail {
			ts.Output = pkg.outputBuf[e.Test]
		}
	}
}

// detectPanic records panic traces from any output, subtests included.
func (pkg *pkgState) detectPanic(out string) {
	out = strings.TrimRight(out, "\n")
	if strings.Contains(out, "panic:") || strings.HasPrefix(out, "goroutine ") {
		pkg.panicked = true
		pkg.panicOutput = append(pkg.panicOutput, out)
	}
}

func (pkg *pkgState) appendOutput(test, out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}
	pkg.outputBuf[test] = append(pkg.outputBuf[test], out)
}

func (pkg *pkgState) test(name string) *TestResult {
	if ts, ok := pkg.tests[name]; ok {
		return ts
	}
	ts := &TestResult{Package: pkg.name, Name: name}
	pkg.tests[name] = ts
	pkg.testOrder = append(pkg.testOrder, name)
	return ts
}

func (a *aggregator) results() []TestPackageResult {
	results := make([]TestPackageResult, 0, len(a.order))
	for _, name := range a.order {
		pkg := a.packages[name]
		r := TestPackageResult{Name: pkg.name, Duration: pkg.duration}

		for _, testName := range pkg.testOrder {
			ts := pkg.tests[testName]
			switch ts.Status {
			case StatusPass:
				r.Passed++
			case StatusFail:
				r.Failed++
			case StatusSkip:
				r.Skipped++
			default:
				// started but never finished, e.g. the binary was killed
				continue
			}
			r.Tests = append(r.Tests, *ts)
		}

		r.Panicked = pkg.panicked
		r.PanicOutput = pkg.panicOutput
		switch {
		case pkg.failed && r.TotalTests() == 0 && !pkg.panicked:
			r.BuildError = strings.Join(pkg.outputBuf[""], "\n")
			if r.BuildError == "" {
				r.BuildError = "package failed without running tests"
			}
		case pkg.failed && r.Failed == 0 && !pkg.panicked:
			r.Exited = true
			r.ExitOutput = pkg.outputBuf[""]
		}
		// Skip packages with no test activity
		if r.TotalTests() == 0 && r.BuildError == "" && !r.Panicked {
			continue
		}
		results = append(results, r)
	}
	return results
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
