package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/spec"
)

func payload(t *testing.T) *report.Payload {
	t.Helper()
	root := &spec.Node{Kind: spec.KindSection, Children: []*spec.Node{
		{ID: "auth", Title: "Auth", Kind: spec.KindSection, Children: []*spec.Node{
			{ID: "auth/login", Kind: spec.KindDocument},
			{ID: "auth/logout", Kind: spec.KindDocument},
		}},
		{ID: "billing", Kind: spec.KindDocument},
	}}
	links := []coverage.TestLink{
		{TestID: "t1", Scenario: "auth/login"},
		{TestID: "t2", Scenario: "billing"},
		{TestID: "t3", Scenario: "gone"},
		{TestID: "t4"},
	}
	res, err := coverage.Compute(root, links, map[string]bool{"t1": true})
	require.NoError(t, err)
	return report.Build(root, res, nil)
}

func TestObserve_SetsGauges(t *testing.T) {
	c := NewCollector(filepath.Join(t.TempDir(), "speccov.prom"))

	c.Observe(payload(t))

	assert.InDelta(t, 1, testutil.ToFloat64(c.specs.WithLabelValues("covered")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.specs.WithLabelValues("uncovered")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.specs.WithLabelValues("skipped")), 0.001)
	assert.InDelta(t, 50, testutil.ToFloat64(c.percent), 0.001)
	assert.InDelta(t, 50, testutil.ToFloat64(c.sections.WithLabelValues("auth")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.orphans), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.unlinked), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.tests), 0.001)
}

func TestWrite_Textfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speccov.prom")
	c := NewCollector(path)

	require.NoError(t, c.Write(payload(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "speccov_coverage_percent 50")
	assert.Contains(t, string(data), `speccov_specs{status="skipped"} 1`)
}

func TestWrite_BadPath(t *testing.T) {
	c := NewCollector(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, c.Write(payload(t)))
}

func TestSectionPercent_EmptyIsFull(t *testing.T) {
	assert.InDelta(t, 100, sectionPercent(report.Counts{Skipped: 2}), 0.001)
}
