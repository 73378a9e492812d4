package transform

import (
	"slices"
	"strings"
)

// DedupeOptions configures text/dedupe-lines.
type DedupeOptions struct {
	CaseSensitive bool
	// KeepFirst keeps the earliest occurrence; otherwise the latest one wins
	// and takes the position where it appears last.
	KeepFirst   bool
	TrimLines   bool
	RemoveEmpty bool
}

func (DedupeOptions) transformID() ID { return DedupeLines }

var dedupeLines = define(
	DedupeLines,
	"Dedupe lines",
	"Remove duplicate lines (useful after extract/cleanup).",
	[]Field{
		{Key: "caseSensitive", Label: "Case sensitive", Type: FieldBoolean, Default: false},
		{Key: "keepFirst", Label: "Keep first occurrence", Type: FieldBoolean, Default: true},
		{Key: "trimLines", Label: "Trim each line", Type: FieldBoolean, Default: true},
		{Key: "removeEmpty", Label: "Remove empty lines", Type: FieldBoolean, Default: true},
	},
	func(r *reader) DedupeOptions {
		return DedupeOptions{
			CaseSensitive: r.bool("caseSensitive"),
			KeepFirst:     r.bool("keepFirst"),
			TrimLines:     r.bool("trimLines"),
			RemoveEmpty:   r.bool("removeEmpty"),
		}
	},
	DedupeLinesText,
)

// DedupeLinesText removes repeated lines from input.
func DedupeLinesText(input string, o DedupeOptions) string {
	keyOf := func(line string) string {
		if o.CaseSensitive {
			return line
		}
		return strings.ToLower(line)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(toLF(input), "\n") {
		if o.TrimLines {
			line = strings.TrimSpace(line)
		}
		if o.RemoveEmpty && line == "" {
			continue
		}

		key := keyOf(line)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			out = append(out, line)
			continue
		}
		if !o.KeepFirst {
			out = slices.DeleteFunc(out, func(prev string) bool { return keyOf(prev) == key })
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
