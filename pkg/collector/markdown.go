package collector

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/speccov/pkg/spec"
)

// MarkdownType is the registry key of the Markdown collector.
const MarkdownType = "markdown"

// Markdown collects a directory of Markdown documents with optional YAML front matter.
type Markdown struct{}

// NewMarkdown is the Factory for MarkdownType.
func NewMarkdown() Collector { return &Markdown{} }

func (m *Markdown) Validate(cfg Config) error { return cfg.Validate() }

func (m *Markdown) Collect(cfg Config) (*spec.Node, error) {
	if err := m.Validate(cfg); err != nil {
		return nil, err
	}
	return collectTree(cfg, documentFormat{ext: ".md", title: markdownTitle})
}

type frontMatter struct {
	Title string `yaml:"title"`
}

var (
	fenceOpen  = []byte("---\n")
	fenceClose = []byte("\n---")
)

// markdownTitle prefers front matter `title:`, then the first "# " heading.
func markdownTitle(data []byte) (string, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	body := data

	if bytes.HasPrefix(data, fenceOpen) {
		rest := data[len(fenceOpen)-1:] // keep the newline so an empty block still matches fenceClose
		end := closingFence(rest)
		if end < 0 {
			// a leading thematic break, not front matter
			return headingTitle(data), nil
		}
		var fm frontMatter
		if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
			return "", fmt.Errorf("front matter: %w", err)
		}
		if t := strings.TrimSpace(fm.Title); t != "" {
			return t, nil
		}
		body = rest[end+len(fenceClose):]
	}
	return headingTitle(body), nil
}

// closingFence returns the offset of the line that closes a front matter
// block, or -1. The fence must be a line of its own.
func closingFence(rest []byte) int {
	for off := 0; ; {
		i := bytes.Index(rest[off:], fenceClose)
		if i < 0 {
			return -1
		}
		end := off + i
		after := rest[end+len(fenceClose):]
		if len(after) == 0 || after[0] == '\n' {
			return end
		}
		off = end + 1
	}
}

func headingTitle(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
