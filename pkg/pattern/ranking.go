package pattern

// Ranking lists spec sections ordered by how many of their leaves are
// uncovered, worst first. Sections holds at most the top N; Total counts
// every section that qualified.
type Ranking struct {
	Label    string          `json:"label"`
	Total    int             `json:"total"`
	Sections []RankedSection `json:"sections"`
}

// RankedSection is one section's leaf counts.
type RankedSection struct {
	Name      string `json:"name"`
	Uncovered int    `json:"uncovered"`
	Covered   int    `json:"covered"`
	Leaves    int    `json:"leaves"`
}

func (r *Ranking) Type() PatternType { return PatternTypeRanking }

// Truncated reports whether sections were dropped to fit the top N.
func (r *Ranking) Truncated() bool { return r.Total > len(r.Sections) }
