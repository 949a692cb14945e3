package collector

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dkoosis/speccov/pkg/spec"
)

// SphinxType is the registry key of the reStructuredText collector.
const SphinxType = "sphinx"

// rstAdornment lists the characters docutils accepts for section adornment.
const rstAdornment = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Sphinx collects a directory of reStructuredText documents.
type Sphinx struct{}

// NewSphinx is the Factory for SphinxType.
func NewSphinx() Collector { return &Sphinx{} }

func (s *Sphinx) Validate(cfg Config) error { return cfg.Validate() }

func (s *Sphinx) Collect(cfg Config) (*spec.Node, error) {
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}
	return collectTree(cfg, documentFormat{ext: ".rst", title: rstTitle})
}

// rstTitle returns the document title of an rst file, or "". Only the
// leading block, up to the first blank line, is considered, so a heading
// further down the document is not a title. Both underline-only and
// overline+underline styles are recognized.
func rstTitle(data []byte) (string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if isAdornment(line) && i+1 < len(lines) && !isAdornment(lines[i+1]) {
			title := strings.TrimSpace(lines[i+1])
			if i+2 >= len(lines) || lines[i+2] != line {
				return "", fmt.Errorf("title overline %q has no matching underline", line)
			}
			if utf8.RuneCountInString(line) < utf8.RuneCountInString(title) {
				return "", fmt.Errorf("title overline is too short for %q", title)
			}
			return title, nil
		}

		if line[0] == ' ' || line[0] == '\t' || isAdornment(line) {
			continue
		}
		if i+1 >= len(lines) {
			break
		}
		under := lines[i+1]
		if isAdornment(under) && utf8.RuneCountInString(under) >= utf8.RuneCountInString(line) {
			return strings.TrimSpace(line), nil
		}
	}
	return "", nil
}

// isAdornment reports whether s is one punctuation character repeated.
func isAdornment(s string) bool {
	if s == "" || !strings.ContainsRune(rstAdornment, rune(s[0])) {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}
