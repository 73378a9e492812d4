package transform

import (
	"math"
	"strings"
)

// LineEnding selects the newline sequence of whitespace/normalize output.
type LineEnding string

const (
	LF   LineEnding = "LF"
	CRLF LineEnding = "CRLF"
)

// WhitespaceOptions configures whitespace/normalize.
type WhitespaceOptions struct {
	LineEndings          LineEnding
	RemoveTrailingSpaces bool
	CollapseBlankLines   bool
	MaxBlankLines        int
	EnsureFinalNewline   bool
}

func (WhitespaceOptions) transformID() ID { return WhitespaceNormalize }

var whitespaceNormalize = define(
	WhitespaceNormalize,
	"Whitespace normalize",
	"Normalize line endings and whitespace cleanup.",
	[]Field{
		{
			Key:     "lineEndings",
			Label:   "Line endings",
			Type:    FieldSelect,
			Default: string(LF),
			Choices: []Choice{
				{Value: string(LF), Label: "LF (Unix)"},
				{Value: string(CRLF), Label: "CRLF (Windows)"},
			},
		},
		{Key: "removeTrailingSpaces", Label: "Remove trailing spaces", Type: FieldBoolean, Default: true},
		{Key: "collapseBlankLines", Label: "Collapse blank lines", Type: FieldBoolean, Default: true},
		{Key: "maxBlankLines", Label: "Max blank lines", Type: FieldNumber, Default: 1.0, Min: ptr(0), Max: ptr(10), Step: ptr(1)},
		{Key: "ensureFinalNewline", Label: "Ensure final newline", Type: FieldBoolean, Default: false},
	},
	func(r *reader) WhitespaceOptions {
		return WhitespaceOptions{
			LineEndings:          LineEnding(r.choice("lineEndings")),
			RemoveTrailingSpaces: r.bool("removeTrailingSpaces"),
			CollapseBlankLines:   r.bool("collapseBlankLines"),
			MaxBlankLines:        int(math.Floor(r.number("maxBlankLines"))),
			EnsureFinalNewline:   r.bool("ensureFinalNewline"),
		}
	},
	NormalizeWhitespace,
)

// NormalizeWhitespace strips trailing blanks, caps runs of blank lines and
// rewrites line endings. Inner whitespace of a line is left alone.
func NormalizeWhitespace(input string, o WhitespaceOptions) string {
	out := toLF(input)
	if o.RemoveTrailingSpaces {
		out = removeTrailingSpaces(out)
	}
	if o.CollapseBlankLines {
		out = collapseBlankLines(out, o.MaxBlankLines)
	}
	if o.LineEndings == CRLF {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	if o.EnsureFinalNewline && out != "" && !strings.HasSuffix(out, "\n") {
		if o.LineEndings == CRLF {
			out += "\r\n"
		} else {
			out += "\n"
		}
	}
	return out
}

// toLF converts CRLF and lone CR to LF.
func toLF(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func removeTrailingSpaces(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

func collapseBlankLines(text string, maxBlanks int) string {
	limit := min(max(maxBlanks, 0), 10)

	var out []string
	run := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			run++
			if run <= limit {
				out = append(out, "")
			}
			continue
		}
		run = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
