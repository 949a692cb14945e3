package render

import (
	"encoding/json"

	"github.com/dkoosis/speccov/internal/version"
	"github.com/dkoosis/speccov/pkg/pattern"
)

// JSON renders patterns as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// document is the top-level JSON structure. Coverage repeats the score of
// the first coverage summary so scripts need not search the patterns.
type document struct {
	Tool     string         `json:"tool"`
	Version  string         `json:"version"`
	Coverage *pattern.Score `json:"coverage,omitempty"`
	Patterns []entry        `json:"patterns"`
}

type entry struct {
	Type pattern.PatternType `json:"type"`
	Data pattern.Pattern     `json:"data"`
}

// Render formats all patterns as JSON.
func (j *JSON) Render(patterns []pattern.Pattern) string {
	doc := document{
		Tool:     "speccov",
		Version:  version.Version,
		Patterns: make([]entry, 0, len(patterns)),
	}
	for _, p := range patterns {
		if s, ok := p.(*pattern.Summary); ok && s.Score != nil && doc.Coverage == nil {
			doc.Coverage = s.Score
		}
		doc.Patterns = append(doc.Patterns, entry{Type: p.Type(), Data: p})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON)
	}
	return string(data) + "\n"
}
