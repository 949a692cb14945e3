// Package mapper converts coverage payloads and test results into
// visualization patterns.
package mapper

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/pattern"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/session"
)

// DefaultTop is the number of sections kept on the least-covered leaderboard.
const DefaultTop = 5

var titleCaser = cases.Title(language.English)

// Options tunes FromCoverage.
type Options struct {
	Tree bool // include the annotated spec tree
	Top  int  // leaderboard size; 0 means DefaultTop
}

// FromCoverage converts a payload and its verdict into patterns:
// Summary, optional Tree, Ranking of least-covered sections, then tables
// of uncovered specs, skipped specs and orphan links.
func FromCoverage(p *report.Payload, v session.Verdict, opts Options) []pattern.Pattern {
	patterns := []pattern.Pattern{coverageSummary(p, v)}
	if p == nil || p.Root == nil {
		return patterns
	}

	if opts.Tree {
		patterns = append(patterns, &pattern.Tree{
			Label: "Spec tree",
			Roots: treeNodes(p.Root.Children),
		})
	}

	top := opts.Top
	if top <= 0 {
		top = DefaultTop
	}
	if r := leastCovered(p.Root, top); r != nil {
		patterns = append(patterns, r)
	}

	if rows := specRows(p.Leaves(report.StatusUncovered), pattern.StatusUncovered, breadcrumb); len(rows) > 0 {
		patterns = append(patterns, &pattern.Table{
			Label: fmt.Sprintf("Uncovered specs (%d)", len(rows)),
			Rows:  rows,
		})
	}
	if rows := specRows(p.Leaves(report.StatusSkipped), pattern.StatusSkipped, linkedTests); len(rows) > 0 {
		patterns = append(patterns, &pattern.Table{
			Label: fmt.Sprintf("Skipped specs (%d)", len(rows)),
			Rows:  rows,
		})
	}
	if len(p.Orphans) > 0 {
		patterns = append(patterns, orphanTable(p.Orphans))
	}
	return patterns
}

func coverageSummary(p *report.Payload, v session.Verdict) *pattern.Summary {
	verdict := "PASS"
	if !v.Pass {
		verdict = "FAIL"
	}
	s := &pattern.Summary{
		Label: fmt.Sprintf("%s spec coverage %.1f%% (target %.1f%%)", verdict, v.Score, v.Target),
		Kind:  pattern.SummaryKindCoverage,
		Score: &pattern.Score{Percent: v.Score, Target: v.Target, Pass: v.Pass, Policy: string(v.Policy)},
	}
	if p == nil {
		return s
	}

	sum := p.Summary
	s.Metrics = append(s.Metrics,
		pattern.Metric{Label: "Covered", Value: fmt.Sprintf("%d/%d", sum.Covered, sum.Total()), Tone: pattern.ToneGood},
		pattern.Metric{Label: "Uncovered", Value: fmt.Sprintf("%d", sum.Uncovered), Tone: pattern.CountTone(sum.Uncovered, pattern.ToneBad)},
		pattern.Metric{Label: "Skipped", Value: fmt.Sprintf("%d", sum.Skipped), Tone: pattern.CountTone(sum.Skipped, pattern.ToneWarn)},
		pattern.Metric{Label: "Orphans", Value: fmt.Sprintf("%d", sum.Orphans), Tone: pattern.CountTone(sum.Orphans, pattern.ToneWarn)},
		pattern.Metric{Label: "Unlinked", Value: fmt.Sprintf("%d", sum.Unlinked), Tone: pattern.ToneNeutral},
	)
	if v.Policy != "" && v.Policy != coverage.SkippedExclude {
		s.Metrics = append(s.Metrics, pattern.Metric{
			Label: "Skipped policy", Value: string(v.Policy), Tone: pattern.ToneNeutral,
		})
	}
	return s
}

func treeNodes(nodes []*report.NodeReport) []pattern.TreeNode {
	out := make([]pattern.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Status == report.StatusSection {
			out = append(out, pattern.TreeNode{
				Name:     sectionName(n),
				Detail:   fmt.Sprintf("%d/%d", n.Counts.Covered, n.Counts.Total()),
				Children: treeNodes(n.Children),
			})
			continue
		}
		out = append(out, pattern.TreeNode{
			Name:   n.ID,
			Status: leafStatus(n.Status),
			Detail: n.Title,
		})
	}
	return out
}

// sectionName prefers the section title and falls back to the last id
// segment in title case.
func sectionName(n *report.NodeReport) string {
	if n.Title != "" {
		return n.Title
	}
	seg := strings.NewReplacer("-", " ", "_", " ").Replace(path.Base(n.ID))
	return titleCaser.String(seg)
}

func leafStatus(s report.Status) pattern.Status {
	switch s {
	case report.StatusCovered:
		return pattern.StatusCovered
	case report.StatusSkipped:
		return pattern.StatusSkipped
	default:
		return pattern.StatusUncovered
	}
}

// leastCovered ranks every section with at least one uncovered leaf.
func leastCovered(root *report.NodeReport, top int) *pattern.Ranking {
	var sections []*report.NodeReport
	var walk func(*report.NodeReport)
	walk = func(n *report.NodeReport) {
		for _, c := range n.Children {
			if c.Status != report.StatusSection {
				continue
			}
			if c.Counts.Uncovered > 0 {
				sections = append(sections, c)
			}
			walk(c)
		}
	}
	walk(root)
	if len(sections) == 0 {
		return nil
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Counts.Uncovered != sections[j].Counts.Uncovered {
			return sections[i].Counts.Uncovered > sections[j].Counts.Uncovered
		}
		return sections[i].ID < sections[j].ID
	})

	r := &pattern.Ranking{Label: "Least covered sections", Total: len(sections)}
	for _, sec := range sections[:min(top, len(sections))] {
		r.Sections = append(r.Sections, pattern.RankedSection{
			Name:      sectionName(sec),
			Uncovered: sec.Counts.Uncovered,
			Covered:   sec.Counts.Covered,
			Leaves:    sec.Counts.Total(),
		})
	}
	return r
}

func specRows(nodes []*report.NodeReport, status pattern.Status, details func(*report.NodeReport) string) []pattern.Row {
	rows := make([]pattern.Row, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, pattern.Row{
			Name:    n.ID,
			Status:  status,
			Details: details(n),
		})
	}
	return rows
}

func breadcrumb(n *report.NodeReport) string {
	return strings.Join(append(n.Parents[:len(n.Parents):len(n.Parents)], n.Title), " > ")
}

func linkedTests(n *report.NodeReport) string {
	return "linked: " + strings.Join(n.Tests, ", ")
}

func orphanTable(orphans []coverage.TestLink) *pattern.Table {
	rows := make([]pattern.Row, 0, len(orphans))
	for _, o := range orphans {
		rows = append(rows, pattern.Row{
			Name:    o.TestID,
			Status:  pattern.StatusOrphan,
			Details: "unknown spec " + o.Scenario,
		})
	}
	return &pattern.Table{
		Label: fmt.Sprintf("Orphan links (%d)", len(rows)),
		Rows:  rows,
	}
}
