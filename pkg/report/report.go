// Package report shapes a coverage result into the payload handed to
// reporting sinks: the spec tree annotated with per-node status, plus
// hierarchical labels for every executed linked test.
package report

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/spec"
)

// Status is the annotation on a report node.
type Status string

const (
	StatusCovered   Status = "covered"
	StatusUncovered Status = "uncovered"
	StatusSkipped   Status = "skipped"
	StatusSection   Status = "section"
)

// Labels maps configured label names to node titles in configuration order.
type Labels = orderedmap.OrderedMap[string, string]

// Counts tallies leaf statuses beneath a node.
type Counts struct {
	Covered   int `json:"covered"`
	Uncovered int `json:"uncovered"`
	Skipped   int `json:"skipped"`
}

// Total is the number of leaves counted.
func (c Counts) Total() int { return c.Covered + c.Uncovered + c.Skipped }

func (c *Counts) add(o Counts) {
	c.Covered += o.Covered
	c.Uncovered += o.Uncovered
	c.Skipped += o.Skipped
}

// NodeReport mirrors one spec node.
type NodeReport struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Kind     spec.Kind     `json:"kind"`
	Status   Status        `json:"status"`
	Link     string        `json:"link,omitempty"`
	Labels   *Labels       `json:"labels,omitempty"`  // leaves only
	Parents  []string      `json:"parents,omitempty"` // root and section titles above a leaf
	Tests    []string      `json:"tests,omitempty"`   // every test claiming a leaf
	Counts   Counts        `json:"counts"`
	Children []*NodeReport `json:"children,omitempty"`
}

// TestReport is one executed test linked to a known spec.
type TestReport struct {
	TestID   string  `json:"test_id"`
	Scenario string  `json:"scenario"`
	Title    string  `json:"title"`
	Link     string  `json:"link,omitempty"`
	Labels   *Labels `json:"labels"`
}

// Summary carries the headline numbers.
type Summary struct {
	Counts
	Orphans  int     `json:"orphans"`
	Unlinked int     `json:"unlinked"`
	Percent  float64 `json:"percent"`
}

// Payload is the complete report for one run.
type Payload struct {
	Root    *NodeReport         `json:"root"`
	Tests   []TestReport        `json:"tests"`
	Orphans []coverage.TestLink `json:"orphans,omitempty"`
	Summary Summary             `json:"summary"`

	index map[string]*NodeReport
}

// Build annotates root with result. labels[i] is assigned the i-th of the
// leaf's parent titles, starting at the root; names deeper than the path get
// no value and path levels beyond the list are not labelled.
func Build(root *spec.Node, result *coverage.Result, labels []string) *Payload {
	p := &Payload{index: make(map[string]*NodeReport)}
	if root == nil || result == nil {
		return p
	}

	p.Root = p.node(root, nil, result, labels)

	for _, id := range result.Covered {
		leaf := p.index[id]
		for _, testID := range result.Ran[id] {
			p.Tests = append(p.Tests, TestReport{
				TestID:   testID,
				Scenario: id,
				Title:    leaf.Title,
				Link:     leaf.Link,
				Labels:   leaf.Labels,
			})
		}
	}

	p.Orphans = result.Orphans
	p.Summary = Summary{
		Counts:   p.Root.Counts,
		Orphans:  len(result.Orphans),
		Unlinked: len(result.Unlinked),
		Percent:  result.Percent,
	}
	return p
}

func (p *Payload) node(n *spec.Node, path []*spec.Node, result *coverage.Result, labels []string) *NodeReport {
	nr := &NodeReport{
		ID:    n.ID,
		Title: n.Title,
		Kind:  n.Kind,
		Link:  n.Link,
	}
	p.index[n.ID] = nr

	if n.IsLeaf() {
		nr.Status = leafStatus(result, n.ID)
		nr.Tests = result.Matches[n.ID]
		for _, sec := range path {
			if sec.Title != "" {
				nr.Parents = append(nr.Parents, sec.Title)
			}
		}
		nr.Labels = labelSet(LabelValues(nr.Parents), labels)
		switch nr.Status {
		case StatusCovered:
			nr.Counts.Covered = 1
		case StatusSkipped:
			nr.Counts.Skipped = 1
		default:
			nr.Counts.Uncovered = 1
		}
		return nr
	}

	nr.Status = StatusSection
	path = append(path[:len(path):len(path)], n)
	for _, c := range n.Children {
		child := p.node(c, path, result, labels)
		nr.Counts.add(child.Counts)
		nr.Children = append(nr.Children, child)
	}
	return nr
}

func leafStatus(result *coverage.Result, id string) Status {
	s, _ := result.Status(id)
	switch s {
	case coverage.StatusCovered:
		return StatusCovered
	case coverage.StatusSkipped:
		return StatusSkipped
	default:
		return StatusUncovered
	}
}

// MaxLabelDepth is the number of label levels a parent path is folded into.
const MaxLabelDepth = 3

// LabelValues folds parents into at most MaxLabelDepth values, joining the
// levels from the third onward with ".".
func LabelValues(parents []string) []string {
	values := append([]string(nil), parents...)
	if len(values) > MaxLabelDepth {
		values = append(values[:MaxLabelDepth-1], strings.Join(values[MaxLabelDepth-1:], "."))
	}
	return values
}

func labelSet(values, names []string) *Labels {
	set := orderedmap.New[string, string]()
	for i, name := range names {
		if i >= len(values) {
			break
		}
		set.Set(name, values[i])
	}
	return set
}

// Find returns the report node for id.
func (p *Payload) Find(id string) (*NodeReport, bool) {
	n, ok := p.index[id]
	return n, ok
}

// Leaves returns the leaf reports with status s in tree order.
func (p *Payload) Leaves(s Status) []*NodeReport {
	var out []*NodeReport
	var walk func(*NodeReport)
	walk = func(n *NodeReport) {
		if n.Status == s && n.Status != StatusSection {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	if p.Root != nil {
		walk(p.Root)
	}
	return out
}

// LabelPairs flattens a label set in order, for sinks that want key/value slices.
func LabelPairs(l *Labels) [][2]string {
	if l == nil {
		return nil
	}
	pairs := make([][2]string, 0, l.Len())
	for pair := l.Oldest(); pair != nil; pair = pair.Next() {
		pairs = append(pairs, [2]string{pair.Key, pair.Value})
	}
	return pairs
}
