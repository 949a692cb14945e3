package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/speccov/pkg/pattern"
)

// maxSectionName caps ranked section titles. Table row names are never
// shortened so ids stay copyable.
const maxSectionName = 50

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		s := t.renderOne(p)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderOne(p pattern.Pattern) string {
	switch v := p.(type) {
	case *pattern.Summary:
		return t.renderSummary(v)
	case *pattern.Ranking:
		return t.renderRanking(v)
	case *pattern.Table:
		return t.renderTable(v)
	case *pattern.Tree:
		return t.renderTree(v)
	default:
		return ""
	}
}

func (t *Terminal) heading(sb *strings.Builder, label string) {
	if label == "" {
		return
	}
	sb.WriteString(t.theme.Heading.Render(label))
	sb.WriteString("\n")
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	t.heading(&sb, s.Label)
	for _, m := range s.Metrics {
		mark := t.theme.Tone(m.Tone)
		sb.WriteString("  ")
		sb.WriteString(mark.Style.Render(mark.Glyph + " " + m.Label + ": " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderRanking(r *pattern.Ranking) string {
	if len(r.Sections) == 0 {
		return ""
	}
	var sb strings.Builder
	header := r.Label
	if header != "" && r.Truncated() {
		header += fmt.Sprintf(" (top %d of %d)", len(r.Sections), r.Total)
	}
	t.heading(&sb, header)

	maxName, maxMetric := 0, 0
	metrics := make([]string, len(r.Sections))
	for i, sec := range r.Sections {
		metrics[i] = fmt.Sprintf("%d uncovered", sec.Uncovered)
		maxName = max(maxName, runewidth.StringWidth(sec.Name))
		maxMetric = max(maxMetric, runewidth.StringWidth(metrics[i]))
	}
	maxName = min(maxName, maxSectionName)

	for i, sec := range r.Sections {
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", i+1)))
		sb.WriteString(t.theme.Section.Render(padRight(truncate(sec.Name, maxName), maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Accent.Render(padLeft(metrics[i], maxMetric)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%d/%d", sec.Covered, sec.Leaves)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTable(tb *pattern.Table) string {
	if len(tb.Rows) == 0 {
		return ""
	}
	var sb strings.Builder
	t.heading(&sb, tb.Label)

	// Names are padded only when a trailing column follows them.
	maxName, maxDur, trailing := 0, 0, false
	for _, r := range tb.Rows {
		maxName = max(maxName, runewidth.StringWidth(r.Name))
		maxDur = max(maxDur, runewidth.StringWidth(r.Duration))
		trailing = trailing || r.Tests > 0 || r.Duration != ""
	}

	for _, r := range tb.Rows {
		mark := t.theme.Status(r.Status)
		sb.WriteString("  ")
		sb.WriteString(mark.Style.Render(mark.Glyph + " "))
		if trailing {
			sb.WriteString(padRight(r.Name, maxName))
		} else {
			sb.WriteString(r.Name)
		}

		if r.Tests > 0 {
			sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("  %d tests", r.Tests)))
		}
		if r.Duration != "" {
			sb.WriteString("  ")
			sb.WriteString(t.theme.Muted.Render(padLeft(r.Duration, maxDur)))
		}

		if r.Details != "" {
			for _, line := range strings.Split(r.Details, "\n") {
				sb.WriteString("\n    ")
				sb.WriteString(t.theme.Muted.Render(line))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTree(tr *pattern.Tree) string {
	if len(tr.Roots) == 0 {
		return ""
	}
	var sb strings.Builder
	t.heading(&sb, tr.Label)
	t.renderBranch(&sb, tr.Roots, "  ")
	return sb.String()
}

// renderBranch shortens section names and leaf titles to the terminal
// width. Leaf spec ids are printed whole.
func (t *Terminal) renderBranch(sb *strings.Builder, nodes []pattern.TreeNode, indent string) {
	for i, n := range nodes {
		connector, next := "├─ ", "│  "
		if i == len(nodes)-1 {
			connector, next = "└─ ", "   "
		}
		sb.WriteString(t.theme.Muted.Render(indent + connector))

		avail := t.width - runewidth.StringWidth(indent+connector) - 2
		if n.IsSection() {
			name := truncate(n.Name, avail)
			sb.WriteString(t.theme.Section.Render(name))
			avail -= runewidth.StringWidth(name)
		} else {
			mark := t.theme.Status(n.Status)
			sb.WriteString(mark.Style.Render(mark.Glyph + " "))
			sb.WriteString(n.Name)
			avail -= runewidth.StringWidth(mark.Glyph+" ") + runewidth.StringWidth(n.Name)
		}
		if n.Detail != "" && avail > 4 {
			sb.WriteString(" ")
			sb.WriteString(t.theme.Muted.Render(truncate(n.Detail, avail-1)))
		}
		sb.WriteString("\n")
		t.renderBranch(sb, n.Children, indent+next)
	}
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}
