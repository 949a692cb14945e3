package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/speccov/pkg/pattern"
)

const maxDetailLines = 3

// LLM renders patterns as terse plain text optimized for AI consumption.
// Zero ANSI codes, a SCOPE line per summary, truncated details.
type LLM struct{}

// NewLLM creates an LLM renderer.
func NewLLM() *LLM {
	return &LLM{}
}

// Render formats all patterns for LLM consumption. Trees are omitted; the
// same specs appear in the tables.
func (l *LLM) Render(patterns []pattern.Pattern) string {
	var sb strings.Builder
	for _, p := range patterns {
		switch v := p.(type) {
		case *pattern.Summary:
			l.renderSummary(&sb, v)
		case *pattern.Table:
			l.renderTable(&sb, v)
		case *pattern.Ranking:
			l.renderRanking(&sb, v)
		}
	}
	return sb.String()
}

func (l *LLM) renderSummary(sb *strings.Builder, s *pattern.Summary) {
	sb.WriteString("SCOPE: " + s.Label + "\n")
	if s.Kind != pattern.SummaryKindCoverage {
		return
	}
	parts := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		parts = append(parts, strings.ReplaceAll(strings.ToLower(m.Label), " ", "_")+"="+m.Value)
	}
	if len(parts) > 0 {
		sb.WriteString(strings.Join(parts, " ") + "\n")
	}
}

func (l *LLM) renderTable(sb *strings.Builder, t *pattern.Table) {
	if len(t.Rows) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(t.Label + "\n")
	for _, item := range t.Rows {
		dur := ""
		if item.Duration != "" {
			dur = " (" + item.Duration + ")"
		}
		sb.WriteString(fmt.Sprintf("  %s %s%s\n", llmStatus(item.Status), item.Name, dur))

		if item.Details != "" {
			lines := strings.Split(item.Details, "\n")
			n := min(len(lines), maxDetailLines)
			for _, line := range lines[:n] {
				sb.WriteString("    " + line + "\n")
			}
			if len(lines) > maxDetailLines {
				sb.WriteString(fmt.Sprintf("    ... (%d more lines)\n", len(lines)-maxDetailLines))
			}
		}
	}
}

func (l *LLM) renderRanking(sb *strings.Builder, r *pattern.Ranking) {
	if len(r.Sections) == 0 {
		return
	}
	sb.WriteString("\n" + r.Label + "\n")
	for i, sec := range r.Sections {
		sb.WriteString(fmt.Sprintf("  %d. %s %d uncovered (%d/%d)\n", i+1, sec.Name, sec.Uncovered, sec.Covered, sec.Leaves))
	}
}

// llmStatus maps a row status to the word an agent acts on: TODO for specs
// that need a test, FAIL for anything broken.
func llmStatus(status pattern.Status) string {
	switch status {
	case pattern.StatusFailed, pattern.StatusOrphan:
		return "FAIL"
	case pattern.StatusSkipped:
		return "SKIP"
	case pattern.StatusUncovered:
		return "TODO"
	default:
		return "PASS"
	}
}
