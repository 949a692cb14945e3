package allure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/speccov/pkg/coverage"
	"github.com/dkoosis/speccov/pkg/report"
	"github.com/dkoosis/speccov/pkg/spec"
	"github.com/dkoosis/speccov/pkg/testjson"
)

func payload(t *testing.T, executed map[string]bool) *report.Payload {
	t.Helper()
	root := &spec.Node{Title: "Shop", Kind: spec.KindSection, Children: []*spec.Node{
		{ID: "auth", Title: "Auth", Kind: spec.KindSection, Children: []*spec.Node{
			{ID: "auth/login", Title: "Login", Kind: spec.KindDocument, Link: "https://d/master/auth/login.html"},
			{ID: "auth/reset", Title: "Reset", Kind: spec.KindDocument, Link: "https://d/master/auth/reset.html"},
		}},
	}}
	links := []coverage.TestLink{{TestID: "m/auth#TestLogin", Scenario: "auth/login"}}
	res, err := coverage.Compute(root, links, executed)
	require.NoError(t, err)
	return report.Build(root, res, []string{"epic", "feature"})
}

func fixedWriter(dir string, outcomes map[string]testjson.TestResult) *Writer {
	w := NewWriter(dir, outcomes)
	n := 0
	w.newUUID = func() string {
		n++
		return fmt.Sprintf("u%d", n)
	}
	w.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return w
}

func TestResults_ExecutedAndMissed(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	outcomes := map[string]testjson.TestResult{
		"m/auth#TestLogin": {
			Package: "m/auth", Name: "TestLogin", Status: testjson.StatusFail,
			Start: start, Stop: start.Add(time.Second), Output: []string{"login_test.go:9: nope"},
		},
	}
	w := fixedWriter(t.TempDir(), outcomes)

	results := w.Results(payload(t, map[string]bool{"m/auth#TestLogin": true}))
	require.Len(t, results, 2)

	login := results[0]
	assert.Equal(t, "TestLogin", login.Name)
	assert.Equal(t, "m/auth#TestLogin", login.FullName)
	assert.Equal(t, StatusFailed, login.Status)
	assert.Equal(t, start.UnixMilli(), login.Start)
	require.NotNil(t, login.StatusDetails)
	assert.Contains(t, login.StatusDetails.Message, "nope")
	assert.Contains(t, login.Labels, Label{Name: "epic", Value: "Shop"})
	assert.Contains(t, login.Labels, Label{Name: "feature", Value: "Auth"})
	for _, l := range login.Labels {
		assert.NotEqual(t, LabelParentSuite, l.Name, "executed tests keep their own suites")
	}
	assert.Contains(t, login.Labels, Label{Name: LabelPackage, Value: "m/auth"})
	assert.Contains(t, login.Links, Link{Name: "auth/login", URL: "https://d/master/auth/login.html", Type: LinkTypeTMS})

	reset := results[1]
	assert.Equal(t, "Reset", reset.Name)
	assert.Equal(t, StatusUnknown, reset.Status)
	assert.Equal(t, int64(1700000000000), reset.Start)
	assert.Equal(t, []Label{
		{Name: "epic", Value: "Shop"},
		{Name: "feature", Value: "Auth"},
		{Name: LabelParentSuite, Value: "Shop"},
		{Name: LabelSuite, Value: "Auth"},
	}, reset.Labels)
	assert.Equal(t, []Link{{Name: DefaultLinkLabel, URL: "https://d/master/auth/reset.html", Type: LinkTypeLink}}, reset.Links)
}

func TestResults_UnknownOutcomeDefaultsToPassed(t *testing.T) {
	w := fixedWriter(t.TempDir(), nil)

	results := w.Results(payload(t, map[string]bool{"m/auth#TestLogin": true}))

	assert.Equal(t, StatusPassed, results[0].Status)
	assert.Nil(t, results[0].StatusDetails)
}

func TestResults_SkippedSpecsNotReported(t *testing.T) {
	w := fixedWriter(t.TempDir(), nil)

	results := w.Results(payload(t, nil))

	require.Len(t, results, 1, "only the uncovered spec, the skipped one has no result")
	assert.Equal(t, "auth/reset", results[0].FullName)
}

func TestWrite_CreatesResultFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "allure-results")
	w := fixedWriter(dir, nil)

	require.NoError(t, w.Write(payload(t, map[string]bool{"m/auth#TestLogin": true})))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), "-result.json"), e.Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, "u1-result.json"))
	require.NoError(t, err)
	var r Result
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, "TestLogin", r.Name)
	assert.Equal(t, StageFinished, r.Stage)
}

func TestWrite_EmptyPayloadWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "none")

	require.NoError(t, NewWriter(dir, nil).Write(&report.Payload{}))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSuiteLabels_FoldsDeepPaths(t *testing.T) {
	got := suiteLabels([]string{"A", "B", "C", "D"})

	assert.Equal(t, []Label{
		{Name: LabelParentSuite, Value: "A"},
		{Name: LabelSuite, Value: "B"},
		{Name: LabelSubSuite, Value: "C.D"},
	}, got)
	assert.Len(t, suiteLabels([]string{"A"}), 1)
}

func TestHistoryID_Stable(t *testing.T) {
	assert.Equal(t, historyID("m#T"), historyID("m#T"))
	assert.NotEqual(t, historyID("m#T"), historyID("m#U"))
}
