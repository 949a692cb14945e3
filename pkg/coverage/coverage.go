// Package coverage joins declared test-to-spec links against a collected spec
// tree and computes covered, uncovered and skipped specs.
package coverage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkoosis/speccov/pkg/spec"
)

// TestLink associates one collected test with the scenario id from its mark.
// An empty Scenario means the test is unlinked.
type TestLink struct {
	TestID   string // "<import path>#<TestFunc>"
	Scenario string
}

// TestID is the identifier shared by scanned links and go test -json events.
func TestID(pkg, fn string) string {
	return pkg + "#" + fn
}

// SplitTestID is the inverse of TestID.
func SplitTestID(id string) (pkg, fn string) {
	i := strings.LastIndex(id, "#")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

// Status is the coverage state of a single spec.
type Status string

const (
	StatusCovered   Status = "covered"
	StatusUncovered Status = "uncovered"
	StatusSkipped   Status = "skipped" // linked, but no linked test ran
)

// Result is the outcome of Compute. All slices are sorted.
type Result struct {
	Covered   []string
	Uncovered []string
	Skipped   []string

	// Orphans are links whose scenario id is not a leaf of the tree.
	Orphans []TestLink
	// Unlinked lists tests that declared no scenario.
	Unlinked []string

	// Matches maps each linked leaf id to every test claiming it.
	Matches map[string][]string
	// Ran maps each covered leaf id to the linked tests that executed.
	Ran map[string][]string

	// Percent is covered / (covered + uncovered) * 100, or 100 when both are empty.
	Percent float64

	status map[string]Status
}

// ComputationError reports a broken invariant in the input tree.
type ComputationError struct {
	Reason string
}

func (e *ComputationError) Error() string {
	return "coverage: " + e.Reason
}

// Compute classifies every leaf of root. executed holds the ids of tests that
// actually ran in this invocation.
func Compute(root *spec.Node, links []TestLink, executed map[string]bool) (*Result, error) {
	if root == nil {
		return nil, &ComputationError{Reason: "nil spec tree"}
	}
	if err := checkUnique(root); err != nil {
		return nil, err
	}

	leaves := make(map[string]bool)
	for _, id := range root.LeafIDs() {
		leaves[id] = true
	}

	r := &Result{
		Matches: make(map[string][]string),
		Ran:     make(map[string][]string),
		status:  make(map[string]Status),
	}

	for _, l := range links {
		switch {
		case l.Scenario == "":
			r.Unlinked = append(r.Unlinked, l.TestID)
		case !leaves[l.Scenario]:
			r.Orphans = append(r.Orphans, l)
		default:
			r.Matches[l.Scenario] = append(r.Matches[l.Scenario], l.TestID)
			if executed[l.TestID] {
				r.Ran[l.Scenario] = append(r.Ran[l.Scenario], l.TestID)
			}
		}
	}

	for id := range leaves {
		var s Status
		switch {
		case len(r.Matches[id]) == 0:
			s = StatusUncovered
			r.Uncovered = append(r.Uncovered, id)
		case len(r.Ran[id]) > 0:
			s = StatusCovered
			r.Covered = append(r.Covered, id)
		default:
			s = StatusSkipped
			r.Skipped = append(r.Skipped, id)
		}
		r.status[id] = s
	}

	sort.Strings(r.Covered)
	sort.Strings(r.Uncovered)
	sort.Strings(r.Skipped)
	sort.Strings(r.Unlinked)
	sort.Slice(r.Orphans, func(i, j int) bool {
		if r.Orphans[i].Scenario != r.Orphans[j].Scenario {
			return r.Orphans[i].Scenario < r.Orphans[j].Scenario
		}
		return r.Orphans[i].TestID < r.Orphans[j].TestID
	})
	for _, m := range []map[string][]string{r.Matches, r.Ran} {
		for _, tests := range m {
			sort.Strings(tests)
		}
	}

	r.Percent = percent(len(r.Covered), len(r.Covered)+len(r.Uncovered))
	return r, nil
}

// Status returns the state of a leaf id, and false if the id is not a leaf.
func (r *Result) Status(id string) (Status, bool) {
	s, ok := r.status[id]
	return s, ok
}

// Total is the number of leaves classified.
func (r *Result) Total() int {
	return len(r.Covered) + len(r.Uncovered) + len(r.Skipped)
}

// OrphanScenarios returns the distinct unknown scenario ids, sorted.
func (r *Result) OrphanScenarios() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, o := range r.Orphans {
		if !seen[o.Scenario] {
			seen[o.Scenario] = true
			ids = append(ids, o.Scenario)
		}
	}
	return ids
}

// checkUnique rejects trees where two nodes share an id.
func checkUnique(root *spec.Node) error {
	seen := make(map[string]bool)
	for _, id := range root.IDs() {
		if seen[id] {
			return &ComputationError{Reason: fmt.Sprintf("duplicate spec id %q", id)}
		}
		seen[id] = true
	}
	return nil
}

func percent(num, den int) float64 {
	if den == 0 {
		return 100
	}
	return float64(num) / float64(den) * 100
}
