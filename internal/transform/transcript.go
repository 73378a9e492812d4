package transform

import (
	"regexp"
	"strings"
)

// TranscriptOptions configures transcript/clean.
type TranscriptOptions struct {
	RemoveTimestamps    bool
	NormalizeSpeakers   bool
	RemoveFillers       bool
	NormalizeWhitespace bool
}

func (TranscriptOptions) transformID() ID { return TranscriptClean }

var transcriptClean = define(
	TranscriptClean,
	"Transcript clean",
	"Remove timestamps, normalize speaker labels, optional filler cleanup.",
	[]Field{
		{Key: "removeTimestamps", Label: "Remove timestamps", Type: FieldBoolean, Default: true},
		{Key: "normalizeSpeakers", Label: "Normalize speaker labels", Type: FieldBoolean, Default: true},
		{Key: "removeFillers", Label: "Remove filler words (best-effort)", Type: FieldBoolean, Default: false},
		{Key: "normalizeWhitespace", Label: "Normalize whitespace", Type: FieldBoolean, Default: true},
	},
	func(r *reader) TranscriptOptions {
		return TranscriptOptions{
			RemoveTimestamps:    r.bool("removeTimestamps"),
			NormalizeSpeakers:   r.bool("normalizeSpeakers"),
			RemoveFillers:       r.bool("removeFillers"),
			NormalizeWhitespace: r.bool("normalizeWhitespace"),
		}
	},
	CleanTranscript,
)

var (
	leadingTimestampRe = regexp.MustCompile(`(?m)^\s*(?:\[|\()?\s*\d{1,2}:\d{2}(?::\d{2})?\s*(?:\]|\))?\s*[-–—]?\s*`)
	inlineTimestampRe  = regexp.MustCompile(`\s*(?:\[|\()?\s*\d{1,2}:\d{2}(?::\d{2})?\s*(?:\]|\))?\s*`)
	speakerLabelRe     = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9 _.'-]{0,40})\s*(?::|-|—|–)\s+`)
	multiSpaceRe       = regexp.MustCompile(`\s{2,}`)
	spaceRunRe         = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunctRe = regexp.MustCompile(`\s+([,.;!?])`)
	trailingBlankRe    = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe         = regexp.MustCompile(`\n{3,}`)
	fillerRes          = compileFillers("um", "uh", "like", "you know", "i mean", "sort of", "kind of", "actually", "basically")
)

func compileFillers(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		pattern := strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s+`)
		out[i] = regexp.MustCompile(`(?i)\b` + pattern + `\b`)
	}
	return out
}

// CleanTranscript strips timestamps and tidies speaker labels, fillers and
// whitespace according to o.
func CleanTranscript(input string, o TranscriptOptions) string {
	out := input
	if o.RemoveTimestamps {
		out = leadingTimestampRe.ReplaceAllString(out, "")
		out = inlineTimestampRe.ReplaceAllString(out, " ")
	}
	if o.NormalizeSpeakers {
		out = speakerLabelRe.ReplaceAllStringFunc(out, func(m string) string {
			name := speakerLabelRe.FindStringSubmatch(m)[1]
			name = multiSpaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
			return name + ": "
		})
	}
	if o.RemoveFillers {
		for _, re := range fillerRes {
			out = re.ReplaceAllString(out, "")
		}
		out = spaceRunRe.ReplaceAllString(out, " ")
		out = spaceBeforePunctRe.ReplaceAllString(out, "${1}")
	}
	if o.NormalizeWhitespace {
		out = tidyTranscript(out)
	} else {
		out = toLF(out)
	}
	return out
}

func tidyTranscript(text string) string {
	out := toLF(text)
	out = trailingBlankRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out) + "\n"
}
