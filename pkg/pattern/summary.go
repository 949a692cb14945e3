package pattern

// SummaryKind identifies the source of a summary so renderers can dispatch on it.
type SummaryKind string

const (
	SummaryKindCoverage SummaryKind = "coverage"
	SummaryKindTest     SummaryKind = "test"
)

// Summary is the headline of a run: a verdict label and its metrics.
type Summary struct {
	Label   string      `json:"label"`
	Kind    SummaryKind `json:"kind"`
	Metrics []Metric    `json:"metrics,omitempty"`
	// Score is set on coverage summaries only.
	Score *Score `json:"score,omitempty"`
}

// Metric is one labelled count such as "Uncovered: 2".
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Tone  Tone   `json:"tone"`
}

// Score is the numeric coverage verdict behind a coverage summary.
type Score struct {
	Percent float64 `json:"percent"`
	Target  float64 `json:"target"`
	Pass    bool    `json:"pass"`
	Policy  string  `json:"skipped_policy,omitempty"`
}

func (s *Summary) Type() PatternType { return PatternTypeSummary }
