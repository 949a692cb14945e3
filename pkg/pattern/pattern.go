// Package pattern defines the semantic data types for speccov's output.
// Patterns are pure data; renderers decide presentation.
package pattern

// PatternType identifies the kind of visualization pattern.
type PatternType string

const (
	PatternTypeSummary PatternType = "summary"
	PatternTypeRanking PatternType = "ranking"
	PatternTypeTable   PatternType = "table"
	PatternTypeTree    PatternType = "tree"
)

// Pattern is the interface all visualization patterns implement.
type Pattern interface {
	Type() PatternType
}

// Status classifies a table row or tree leaf. Spec rows use the first four
// values, test and package rows the last two.
type Status string

const (
	StatusCovered   Status = "covered"
	StatusUncovered Status = "uncovered"
	StatusSkipped   Status = "skipped"
	StatusOrphan    Status = "orphan"
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
)

// Tone says whether a summary metric is good news.
type Tone string

const (
	ToneGood    Tone = "good"
	ToneWarn    Tone = "warn"
	ToneBad     Tone = "bad"
	ToneNeutral Tone = "neutral"
)

// CountTone is ToneGood for zero and bad otherwise.
func CountTone(n int, bad Tone) Tone {
	if n == 0 {
		return ToneGood
	}
	return bad
}
