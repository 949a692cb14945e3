// Package detect sniffs test results input to confirm it is a go test -json
// stream before it is parsed.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	GoTestJSON        // go test -json NDJSON stream
	GoTestText        // plain go test (-v) output, missing the -json flag
	SARIF             // SARIF document, a linter report rather than test results
)

func (f Format) String() string {
	switch f {
	case GoTestJSON:
		return "go test -json"
	case GoTestText:
		return "go test text"
	case SARIF:
		return "sarif"
	default:
		return "unknown"
	}
}

var validActions = map[string]bool{
	"start": true, "run": true, "pause": true, "cont": true,
	"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
}

var textPrefixes = [][]byte{
	[]byte("=== RUN"), []byte("--- PASS"), []byte("--- FAIL"), []byte("--- SKIP"),
	[]byte("ok  "), []byte("?   "), []byte("FAIL"), []byte("PASS"),
}

// Sniff examines the first bytes of input to determine format.
// Input must contain at least the first line.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}

	if data[0] != '{' {
		for _, p := range textPrefixes {
			if bytes.HasPrefix(data, p) {
				return GoTestText
			}
		}
		return Unknown
	}

	// SARIF is one JSON document; go test -json is one object per line
	if isSARIF(data) {
		return SARIF
	}
	if isGoTestJSON(data) {
		return GoTestJSON
	}
	return Unknown
}

func isSARIF(data []byte) bool {
	var doc struct {
		Version string            `json:"version"`
		Runs    []json.RawMessage `json:"runs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	return doc.Version != "" && doc.Runs != nil
}

func isGoTestJSON(data []byte) bool {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}

	var event struct {
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(firstLine, &event); err != nil {
		return false
	}
	return validActions[event.Action]
}
