package pattern

// Table is a labelled list of spec ids, test names or packages, one status each.
type Table struct {
	Label string `json:"label"`
	Rows  []Row  `json:"rows"`
}

// Row is a single table entry. Tests is set on package rows only.
type Row struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Duration string `json:"duration,omitempty"`
	Tests    int    `json:"tests,omitempty"`
	Details  string `json:"details,omitempty"`
}

func (t *Table) Type() PatternType { return PatternTypeTable }
