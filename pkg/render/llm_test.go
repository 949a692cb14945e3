package render

import (
	"strings"
	"testing"

	"github.com/dkoosis/speccov/pkg/pattern"
)

func TestLLM_RenderCoverage(t *testing.T) {
	out := NewLLM().Render(coveragePatterns())

	if !strings.HasPrefix(out, "SCOPE: FAIL spec coverage 50.0% (target 100%)\n") {
		t.Errorf("expected SCOPE header first:\n%s", out)
	}
	if !strings.Contains(out, "covered=1 uncovered=1") {
		t.Errorf("expected metric line:\n%s", out)
	}
	if !strings.Contains(out, "  TODO auth/logout") {
		t.Errorf("expected uncovered spec row:\n%s", out)
	}
	if strings.Contains(out, "├─") {
		t.Errorf("trees should not be rendered for LLMs:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("LLM output must not contain ANSI codes:\n%s", out)
	}
}

func TestLLM_RenderTestOutput(t *testing.T) {
	patterns := []pattern.Pattern{
		&pattern.Summary{
			Label: "FAIL 1/3 tests, 2 packages",
			Kind:  pattern.SummaryKindTest,
			Metrics: []pattern.Metric{
				{Label: "Passed", Value: "2", Tone: pattern.ToneGood},
			},
		},
		&pattern.Table{
			Label: "FAIL example.com/shop/store",
			Rows: []pattern.Row{
				{Name: "TestLogin", Status: pattern.StatusFailed, Duration: "0.1s", Details: "a\nb\nc\nd\ne"},
			},
		},
	}
	out := NewLLM().Render(patterns)

	if !strings.Contains(out, "SCOPE: FAIL 1/3 tests, 2 packages") {
		t.Errorf("expected SCOPE line:\n%s", out)
	}
	if strings.Contains(out, "passed=2") {
		t.Errorf("test summaries should not emit metric lines:\n%s", out)
	}
	if !strings.Contains(out, "  FAIL TestLogin (0.1s)") {
		t.Errorf("expected failing test row:\n%s", out)
	}
	if !strings.Contains(out, "... (2 more lines)") {
		t.Errorf("expected truncated details:\n%s", out)
	}
}

func TestLLM_RankingAndOrphans(t *testing.T) {
	out := NewLLM().Render([]pattern.Pattern{
		&pattern.Ranking{Label: "Least covered sections", Total: 1, Sections: []pattern.RankedSection{
			{Name: "Billing", Uncovered: 3, Covered: 1, Leaves: 4},
		}},
		&pattern.Table{Label: "Orphan links (1)", Rows: []pattern.Row{
			{Name: "m/auth#TestGhost", Status: pattern.StatusOrphan, Details: "unknown spec auth/ghost"},
		}},
	})

	if !strings.Contains(out, "  1. Billing 3 uncovered (1/4)\n") {
		t.Errorf("expected ranked section:\n%s", out)
	}
	if !strings.Contains(out, "  FAIL m/auth#TestGhost\n    unknown spec auth/ghost\n") {
		t.Errorf("orphan links should read as failures:\n%s", out)
	}
}
