package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/speccov/pkg/pattern"
)

// Mark is the glyph and style drawn in front of a row, leaf or metric.
type Mark struct {
	Glyph string
	Style lipgloss.Style
}

// Theme styles terminal output. Every row status and metric tone has a Mark;
// Section styles tree sections and ranked section names.
type Theme struct {
	Name    string
	Heading lipgloss.Style
	Section lipgloss.Style
	Accent  lipgloss.Style
	Muted   lipgloss.Style

	statuses map[pattern.Status]Mark
	tones    map[pattern.Tone]Mark
}

// Status returns the mark for a row status.
func (t Theme) Status(s pattern.Status) Mark {
	if m, ok := t.statuses[s]; ok {
		return m
	}
	return Mark{Glyph: "?", Style: t.Muted}
}

// Tone returns the mark for a summary metric.
func (t Theme) Tone(tn pattern.Tone) Mark {
	if m, ok := t.tones[tn]; ok {
		return m
	}
	return t.tones[pattern.ToneNeutral]
}

// palette holds ANSI 256 color codes; an empty code leaves the text unstyled.
type palette struct {
	section, good, warn, bad, muted string
}

type glyphs struct {
	covered, uncovered, skipped, orphan string
	passed, failed                      string
	good, warn, bad, neutral            string
}

var (
	unicodeGlyphs = glyphs{
		covered: "●", uncovered: "○", skipped: "◌", orphan: "⚠",
		passed: "✓", failed: "✗",
		good: "✓", warn: "⚠", bad: "✗", neutral: "·",
	}
	asciiGlyphs = glyphs{
		covered: "+", uncovered: "-", skipped: "~", orphan: "?",
		passed: "+", failed: "x",
		good: "+", warn: "!", bad: "x", neutral: "*",
	}
)

func newTheme(name string, p palette, g glyphs) Theme {
	good, warn, bad, muted := fg(p.good), fg(p.warn), fg(p.bad), fg(p.muted)
	return Theme{
		Name:    name,
		Heading: lipgloss.NewStyle().Bold(true),
		Section: fg(p.section),
		Accent:  warn,
		Muted:   muted,
		statuses: map[pattern.Status]Mark{
			pattern.StatusCovered:   {g.covered, good},
			pattern.StatusUncovered: {g.uncovered, bad},
			pattern.StatusSkipped:   {g.skipped, warn},
			pattern.StatusOrphan:    {g.orphan, warn},
			pattern.StatusPassed:    {g.passed, good},
			pattern.StatusFailed:    {g.failed, bad},
		},
		tones: map[pattern.Tone]Mark{
			pattern.ToneGood:    {g.good, good},
			pattern.ToneWarn:    {g.warn, warn},
			pattern.ToneBad:     {g.bad, bad},
			pattern.ToneNeutral: {g.neutral, fg(p.section)},
		},
	}
}

func fg(code string) lipgloss.Style {
	if code == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(code))
}

// DefaultTheme is blue sections with green, orange and red marks.
func DefaultTheme() Theme {
	return newTheme("default", palette{section: "39", good: "34", warn: "214", bad: "196", muted: "242"}, unicodeGlyphs)
}

// OrcaTheme is a muted palette with the same glyphs.
func OrcaTheme() Theme {
	return newTheme("orca", palette{section: "75", good: "108", warn: "179", bad: "167", muted: "245"}, unicodeGlyphs)
}

// MonoTheme has no colors and ASCII glyphs, for NO_COLOR and dumb terminals.
func MonoTheme() Theme {
	return newTheme("mono", palette{}, asciiGlyphs)
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "orca":
		return OrcaTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}
