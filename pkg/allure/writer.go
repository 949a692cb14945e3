package allure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/testjson"
)

// DefaultLinkLabel names the link from a result to its spec page.
const DefaultLinkLabel = "Scenario"

// Writer emits one result file per linked executed test and one per
// uncovered spec.
type Writer struct {
	Dir       string
	LinkLabel string
	// Outcomes supplies status and timing for executed tests, keyed by test id.
	Outcomes map[string]testjson.TestResult

	now     func() time.Time
	newUUID func() string
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string, outcomes map[string]testjson.TestResult) *Writer {
	return &Writer{Dir: dir, LinkLabel: DefaultLinkLabel, Outcomes: outcomes}
}

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "allure" }

// Write persists p under Dir, creating it if needed.
func (w *Writer) Write(p *report.Payload) error {
	if p == nil || p.Root == nil {
		return nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("allure: %w", err)
	}
	for _, r := range w.Results(p) {
		if err := w.writeResult(r); err != nil {
			return err
		}
	}
	return nil
}

// Results converts p without touching disk.
func (w *Writer) Results(p *report.Payload) []Result {
	var out []Result
	for _, t := range p.Tests {
		out = append(out, w.testResult(t))
	}
	for _, n := range p.Leaves(report.StatusUncovered) {
		out = append(out, w.missedResult(n))
	}
	return out
}

func (w *Writer) testResult(t report.TestReport) Result {
	pkg, fn := coverage.SplitTestID(t.TestID)
	r := Result{
		UUID:       w.uuid(),
		HistoryID:  historyID(t.TestID),
		TestCaseID: t.Scenario,
		Name:       fn,
		FullName:   t.TestID,
		Status:     StatusPassed,
		Stage:      StageFinished,
		Labels:     configured(t.Labels),
	}
	r.Labels = append(r.Labels,
		Label{Name: LabelPackage, Value: pkg},
		Label{Name: LabelFramework, Value: "gotest"},
	)
	if o, ok := w.Outcomes[t.TestID]; ok {
		r.Status = status(o.Status)
		r.Start = millis(o.Start)
		r.Stop = millis(o.Stop)
		if o.Status == testjson.StatusFail && len(o.Output) > 0 {
			r.StatusDetails = &StatusDetails{
				Message: o.Output[len(o.Output)-1],
				Trace:   strings.Join(o.Output, "\n"),
			}
		}
	}
	if t.Link != "" {
		r.Links = []Link{
			{Name: w.linkLabel(), URL: t.Link, Type: LinkTypeLink},
			{Name: t.Scenario, URL: t.Link, Type: LinkTypeTMS},
		}
	}
	return r
}

// missedResult reports a spec no test claims.
func (w *Writer) missedResult(n *report.NodeReport) Result {
	ts := millis(w.clock())
	r := Result{
		UUID:       w.uuid(),
		HistoryID:  historyID(n.ID),
		TestCaseID: n.ID,
		Name:       n.Title,
		FullName:   n.ID,
		Status:     StatusUnknown,
		Stage:      StageFinished,
		Start:      ts,
		Stop:       ts,
		Labels:     append(configured(n.Labels), suiteLabels(n.Parents)...),
	}
	if n.Link != "" {
		r.Links = []Link{{Name: w.linkLabel(), URL: n.Link, Type: LinkTypeLink}}
	}
	return r
}

func (w *Writer) writeResult(r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("allure: encode %s: %w", r.FullName, err)
	}
	path := filepath.Join(w.Dir, r.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report files are world-readable
		return fmt.Errorf("allure: %w", err)
	}
	return nil
}

func (w *Writer) linkLabel() string {
	if w.LinkLabel == "" {
		return DefaultLinkLabel
	}
	return w.LinkLabel
}

func (w *Writer) uuid() string {
	if w.newUUID != nil {
		return w.newUUID()
	}
	return uuid.NewString()
}

func (w *Writer) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

func configured(l *report.Labels) []Label {
	var out []Label
	for _, kv := range report.LabelPairs(l) {
		out = append(out, Label{Name: kv[0], Value: kv[1]})
	}
	return out
}

// suiteLabels maps parent titles, root first, onto the three suite levels.
func suiteLabels(parents []string) []Label {
	values := report.LabelValues(parents)
	names := []string{LabelParentSuite, LabelSuite, LabelSubSuite}
	out := make([]Label, 0, len(values))
	for i, v := range values {
		out = append(out, Label{Name: names[i], Value: v})
	}
	return out
}

// historyID is stable across runs so Allure can track trends per test.
func historyID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func status(s string) string {
	switch s {
	case testjson.StatusFail:
		return StatusFailed
	case testjson.StatusSkip:
		return StatusSkipped
	default:
		return StatusPassed
	}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
