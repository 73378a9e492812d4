package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespace_TrailingAndBlankRuns(t *testing.T) {
	d, _ := Builtin().Get(WhitespaceNormalize)
	out, err := d.Apply("a  b\t\tc  \n\n\nd", map[string]any{
		"removeTrailingSpaces": true,
		"collapseBlankLines":   true,
		"maxBlankLines":        1,
		"lineEndings":          "LF",
	})
	require.NoError(t, err)
	assert.Equal(t, "a  b\t\tc\n\nd", out)
}

func TestWhitespace_LineEndings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  WhitespaceOptions
		want  string
	}{
		{
			name:  "crlf output",
			input: "a\r\nb\rc",
			opts:  WhitespaceOptions{LineEndings: CRLF},
			want:  "a\r\nb\r\nc",
		},
		{
			name:  "final newline lf",
			input: "a",
			opts:  WhitespaceOptions{LineEndings: LF, EnsureFinalNewline: true},
			want:  "a\n",
		},
		{
			name:  "final newline crlf",
			input: "a\nb",
			opts:  WhitespaceOptions{LineEndings: CRLF, EnsureFinalNewline: true},
			want:  "a\r\nb\r\n",
		},
		{
			name:  "empty input stays empty",
			input: "",
			opts:  WhitespaceOptions{LineEndings: LF, EnsureFinalNewline: true},
			want:  "",
		},
		{
			name:  "zero blank lines",
			input: "a\n\n\n b \nc",
			opts:  WhitespaceOptions{LineEndings: LF, CollapseBlankLines: true, MaxBlankLines: 0},
			want:  "a\n b \nc",
		},
		{
			name:  "whitespace-only lines count as blank",
			input: "a\n \t\n  \nb",
			opts:  WhitespaceOptions{LineEndings: LF, CollapseBlankLines: true, MaxBlankLines: 1},
			want:  "a\n\nb",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWhitespace(tt.input, tt.opts))
		})
	}
}

func TestDedupe_CaseInsensitiveKeepFirst(t *testing.T) {
	d, _ := Builtin().Get(DedupeLines)
	out, err := d.Apply("B\nA\nb\nA", map[string]any{
		"caseSensitive": false,
		"keepFirst":     true,
		"trimLines":     true,
		"removeEmpty":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "B\nA", out)
}

func TestDedupe_Modes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  DedupeOptions
		want  string
	}{
		{
			name:  "case sensitive keeps variants",
			input: "B\nA\nb\nA",
			opts:  DedupeOptions{CaseSensitive: true, KeepFirst: true},
			want:  "B\nA\nb",
		},
		{
			name:  "keep last moves line to its last position",
			input: "a\nb\na\nc",
			opts:  DedupeOptions{CaseSensitive: true},
			want:  "b\na\nc",
		},
		{
			name:  "keep last uses the later spelling",
			input: "Apple\nkiwi\napple",
			opts:  DedupeOptions{},
			want:  "kiwi\napple",
		},
		{
			name:  "empty lines kept and deduped when not removed",
			input: "a\n\nb\n\n",
			opts:  DedupeOptions{KeepFirst: true},
			want:  "a\n\nb",
		},
		{
			name:  "no trim keeps padded lines distinct",
			input: "a\n a\r\na",
			opts:  DedupeOptions{KeepFirst: true, RemoveEmpty: true},
			want:  "a\n a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeLinesText(tt.input, tt.opts))
		})
	}
}

func TestTranscript_Defaults(t *testing.T) {
	d, _ := Builtin().Get(TranscriptClean)
	input := "[00:01] SPEAKER 1 - Um, hello everyone.\n00:12 Jane: Uh, yeah.\n\n\n\n[00:33] John Doe: Great!   "
	out, err := d.Apply(input, d.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "SPEAKER 1: Um, hello everyone.\nJane: Uh, yeah.\nJohn Doe: Great!\n", out)
}

func TestTranscript_Fillers(t *testing.T) {
	out := CleanTranscript("Um, I mean we should, like, start.", TranscriptOptions{RemoveFillers: true})
	assert.Equal(t, ", we should,, start.", out)
}

func TestTranscript_InlineTimestamps(t *testing.T) {
	out := CleanTranscript("hello (01:02:03) world", TranscriptOptions{RemoveTimestamps: true})
	assert.Equal(t, "hello world", out)
}

func TestTranscript_AllOffOnlyNormalizesNewlines(t *testing.T) {
	out := CleanTranscript("[00:01] a\r\nb  ", TranscriptOptions{})
	assert.Equal(t, "[00:01] a\nb  ", out)
}
