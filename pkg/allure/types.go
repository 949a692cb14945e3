// Package allure writes coverage payloads as Allure result files.
package allure

// Allure result statuses.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusUnknown = "unknown"
)

// StageFinished marks a result as complete.
const StageFinished = "finished"

// Label types understood by Allure.
const (
	LabelParentSuite = "parentSuite"
	LabelSuite       = "suite"
	LabelSubSuite    = "subSuite"
	LabelPackage     = "package"
	LabelFramework   = "framework"
)

// LinkTypeLink is the plain link type; LinkTypeTMS ties a test to a test case.
const (
	LinkTypeLink = "link"
	LinkTypeTMS  = "tms"
)

// Result is one <uuid>-result.json document.
type Result struct {
	UUID          string         `json:"uuid"`
	HistoryID     string         `json:"historyId"`
	TestCaseID    string         `json:"testCaseId,omitempty"`
	Name          string         `json:"name"`
	FullName      string         `json:"fullName,omitempty"`
	Status        string         `json:"status"`
	StatusDetails *StatusDetails `json:"statusDetails,omitempty"`
	Stage         string         `json:"stage"`
	Start         int64          `json:"start,omitempty"`
	Stop          int64          `json:"stop,omitempty"`
	Labels        []Label        `json:"labels"`
	Links         []Link         `json:"links,omitempty"`
}

// StatusDetails carries failure output.
type StatusDetails struct {
	Message string `json:"message,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

// Label is a name/value pair used for grouping.
type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Link points from a result to an external page.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}
