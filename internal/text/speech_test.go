package text

import "testing"

func TestForSpeech(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "Plants turn light into sugar.",
			want:  "Plants turn light into sugar.",
		},
		{
			name:  "strips emphasis",
			input: "This is **really** _quite_ *good* and ~~bad~~.",
			want:  "This is really _quite_ good and bad.",
		},
		{
			name:  "heading becomes sentence",
			input: "## Great start\nYou named the inputs.",
			want:  "Great start. You named the inputs.",
		},
		{
			name:  "bullets become sentences",
			input: "Next steps:\n- mention chlorophyll\n* explain glucose!\n1. review",
			want:  "Next steps: mention chlorophyll. explain glucose! review.",
		},
		{
			name:  "drops code fences and inline code",
			input: "Try this:\n```\nx = 1\n```\nUse `x` wisely.",
			want:  "Try this: x = 1 Use x wisely.",
		},
		{
			name:  "links keep their text",
			input: "See [the guide](https://example.com/guide) for more.",
			want:  "See the guide for more.",
		},
		{
			name:  "drops horizontal rules",
			input: "Part one.\n---\nPart two.",
			want:  "Part one. Part two.",
		},
		{
			name:  "collapses whitespace",
			input: "  lots   of\r\n\r\n space\t here  ",
			want:  "lots of space here",
		},
		{
			name:  "empty input",
			input: " \n ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForSpeech(tt.input); got != tt.want {
				t.Errorf("ForSpeech(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
