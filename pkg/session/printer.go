package session

import (
	"fmt"
	"io"

	"github.com/dkoosis/speccov/pkg/report"
)

// PlainPrinter writes an uncolored summary listing every uncovered spec id.
func PlainPrinter(w io.Writer, p *report.Payload, v Verdict) error {
	verdict := "PASS"
	if !v.Pass {
		verdict = "FAIL"
	}
	if _, err := fmt.Fprintf(w, "spec coverage %.1f%% (target %.1f%%) %s\n", v.Score, v.Target, verdict); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if err := list(w, "uncovered", ids(p.Leaves(report.StatusUncovered))); err != nil {
		return err
	}
	if err := list(w, "skipped", ids(p.Leaves(report.StatusSkipped))); err != nil {
		return err
	}
	var orphans []string
	for _, o := range p.Orphans {
		orphans = append(orphans, o.TestID+" -> "+o.Scenario)
	}
	return list(w, "orphan links", orphans)
}

func list(w io.Writer, heading string, items []string) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s (%d):\n", heading, len(items)); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "  %s\n", it); err != nil {
			return err
		}
	}
	return nil
}

func ids(nodes []*report.NodeReport) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
