package coverage

import "fmt"

// SkippedPolicy decides how skipped specs weigh in a lint verdict.
// Result.Percent is unaffected by the policy.
type SkippedPolicy string

const (
	SkippedExclude   SkippedPolicy = "exclude"   // left out of the denominator
	SkippedCovered   SkippedPolicy = "covered"   // counted as covered
	SkippedUncovered SkippedPolicy = "uncovered" // counted as uncovered
)

// ParseSkippedPolicy accepts "", exclude, covered or uncovered.
func ParseSkippedPolicy(s string) (SkippedPolicy, error) {
	switch SkippedPolicy(s) {
	case "", SkippedExclude:
		return SkippedExclude, nil
	case SkippedCovered, SkippedUncovered:
		return SkippedPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown skipped policy %q (expected exclude, covered, uncovered)", s)
	}
}

// Score returns the percentage used for the lint verdict under policy p.
func (r *Result) Score(p SkippedPolicy) float64 {
	c, u, s := len(r.Covered), len(r.Uncovered), len(r.Skipped)
	switch p {
	case SkippedCovered:
		return percent(c+s, c+u+s)
	case SkippedUncovered:
		return percent(c, c+u+s)
	default:
		return r.Percent
	}
}

// Passes reports whether score meets target (both 0–100).
func Passes(score, target float64) bool {
	return score >= target
}
