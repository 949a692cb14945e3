package mapper

import (
	"strings"
	"testing"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/pattern"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/session"
	"github.com/dkoosis/speccov/pkg/spec"
)

func samplePayload(t *testing.T) *report.Payload {
	t.Helper()
	root := &spec.Node{Kind: spec.KindSection, Children: []*spec.Node{
		{ID: "auth", Title: "Auth", Kind: spec.KindSection, Children: []*spec.Node{
			{ID: "auth/login", Title: "Login", Kind: spec.KindDocument},
			{ID: "auth/logout", Title: "Logout", Kind: spec.KindDocument},
		}},
		{ID: "billing-flows", Kind: spec.KindSection, Children: []*spec.Node{
			{ID: "billing-flows/refund", Title: "Refund", Kind: spec.KindDocument},
			{ID: "billing-flows/invoice", Title: "Invoice", Kind: spec.KindDocument},
		}},
	}}
	links := []coverage.TestLink{
		{TestID: "m/auth#TestLogin", Scenario: "auth/login"},
		{TestID: "m/billing#TestRefund", Scenario: "billing-flows/refund"},
		{TestID: "m/auth#TestGhost", Scenario: "auth/ghost"},
	}
	res, err := coverage.Compute(root, links, map[string]bool{"m/auth#TestLogin": true})
	if err != nil {
		t.Fatal(err)
	}
	return report.Build(root, res, nil)
}

func TestFromCoverage_SummaryFirst(t *testing.T) {
	v := session.Verdict{Score: 50, Target: 80, Policy: coverage.SkippedExclude, Pass: false}
	patterns := FromCoverage(samplePayload(t), v, Options{})

	sum, ok := patterns[0].(*pattern.Summary)
	if !ok {
		t.Fatalf("expected Summary, got %T", patterns[0])
	}
	if sum.Kind != pattern.SummaryKindCoverage {
		t.Errorf("kind = %q", sum.Kind)
	}
	if sum.Label != "FAIL spec coverage 50.0% (target 80.0%)" {
		t.Errorf("label = %q", sum.Label)
	}
	if sum.Metrics[0].Value != "1/4" {
		t.Errorf("covered metric = %q", sum.Metrics[0].Value)
	}
	if sum.Metrics[1].Tone != pattern.ToneBad {
		t.Errorf("uncovered tone = %q", sum.Metrics[1].Tone)
	}
	if sum.Score == nil || sum.Score.Percent != 50 || sum.Score.Target != 80 || sum.Score.Pass {
		t.Errorf("score = %+v", sum.Score)
	}
	for _, m := range sum.Metrics {
		if m.Label == "Skipped policy" {
			t.Error("default policy should not be listed")
		}
	}
}

func TestFromCoverage_PolicyListedWhenNotDefault(t *testing.T) {
	v := session.Verdict{Score: 75, Target: 70, Policy: coverage.SkippedCovered, Pass: true}
	sum := FromCoverage(samplePayload(t), v, Options{})[0].(*pattern.Summary)

	last := sum.Metrics[len(sum.Metrics)-1]
	if last.Label != "Skipped policy" || last.Value != "covered" {
		t.Errorf("last metric = %+v", last)
	}
	if !strings.HasPrefix(sum.Label, "PASS") {
		t.Errorf("label = %q", sum.Label)
	}
}

func TestFromCoverage_Tables(t *testing.T) {
	patterns := FromCoverage(samplePayload(t), session.Verdict{}, Options{})

	tables := map[string]*pattern.Table{}
	for _, p := range patterns {
		if tb, ok := p.(*pattern.Table); ok {
			tables[tb.Label] = tb
		}
	}

	uncovered := tables["Uncovered specs (2)"]
	if uncovered == nil {
		t.Fatalf("missing uncovered table in %v", tables)
	}
	first := uncovered.Rows[0]
	if first.Name != "auth/logout" || first.Details != "Auth > Logout" || first.Status != pattern.StatusUncovered {
		t.Errorf("first uncovered = %+v", first)
	}

	skipped := tables["Skipped specs (1)"]
	if skipped == nil || skipped.Rows[0].Details != "linked: m/billing#TestRefund" || skipped.Rows[0].Status != pattern.StatusSkipped {
		t.Errorf("skipped table = %+v", skipped)
	}

	orphans := tables["Orphan links (1)"]
	if orphans == nil || orphans.Rows[0].Details != "unknown spec auth/ghost" || orphans.Rows[0].Status != pattern.StatusOrphan {
		t.Errorf("orphan table = %+v", orphans)
	}
}

func TestFromCoverage_TreeOptional(t *testing.T) {
	without := FromCoverage(samplePayload(t), session.Verdict{}, Options{})
	for _, p := range without {
		if _, ok := p.(*pattern.Tree); ok {
			t.Fatal("tree emitted without Options.Tree")
		}
	}

	with := FromCoverage(samplePayload(t), session.Verdict{}, Options{Tree: true})
	tr, ok := with[1].(*pattern.Tree)
	if !ok {
		t.Fatalf("expected Tree second, got %T", with[1])
	}
	if tr.Size() != 6 {
		t.Errorf("tree size = %d", tr.Size())
	}
	auth := tr.Roots[0]
	if auth.Name != "Auth" || auth.Detail != "1/2" || !auth.IsSection() {
		t.Errorf("auth section = %+v", auth)
	}
	if auth.Children[0].Status != pattern.StatusCovered || auth.Children[1].Status != pattern.StatusUncovered {
		t.Errorf("auth leaves = %+v", auth.Children)
	}
	if tr.Roots[1].Name != "Billing Flows" {
		t.Errorf("untitled section name = %q", tr.Roots[1].Name)
	}
	if tr.Roots[1].Children[0].Status != pattern.StatusSkipped || tr.Roots[1].Children[1].Status != pattern.StatusUncovered {
		t.Errorf("billing leaves = %+v", tr.Roots[1].Children)
	}
}

func TestFromCoverage_LeastCovered(t *testing.T) {
	patterns := FromCoverage(samplePayload(t), session.Verdict{}, Options{Top: 1})

	var r *pattern.Ranking
	for _, p := range patterns {
		if v, ok := p.(*pattern.Ranking); ok {
			r = v
		}
	}
	if r == nil {
		t.Fatal("expected a ranking")
	}
	if r.Total != 2 || len(r.Sections) != 1 || !r.Truncated() {
		t.Errorf("total=%d sections=%d", r.Total, len(r.Sections))
	}
	// both sections have one uncovered leaf; ties break on id
	want := pattern.RankedSection{Name: "Auth", Uncovered: 1, Covered: 1, Leaves: 2}
	if r.Sections[0] != want {
		t.Errorf("top section = %+v", r.Sections[0])
	}
}

func TestFromCoverage_NilPayload(t *testing.T) {
	patterns := FromCoverage(nil, session.Verdict{Score: 100, Target: 100, Pass: true}, Options{Tree: true})
	if len(patterns) != 1 {
		t.Fatalf("expected only a summary, got %d patterns", len(patterns))
	}
	if sum := patterns[0].(*pattern.Summary); sum.Score == nil || !sum.Score.Pass {
		t.Errorf("nil payload summary should still carry the verdict: %+v", sum.Score)
	}
}
