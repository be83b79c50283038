package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	linkRe    = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	headingRe = regexp.MustCompile(`^#{1,6}\s+`)
	bulletRe  = regexp.MustCompile(`^(?:[-*+•]|\d{1,3}[.)])\s+`)
	ruleRe    = regexp.MustCompile(`^(?:[-*_]\s*){3,}$`)

	emphasis = strings.NewReplacer("**", "", "__", "", "~~", "", "`", "", "*", "")
)

// ForSpeech turns model output into plain prose for the speech service.
// Markdown headings, list markers, emphasis, inline code, links and code
// fences are removed; a heading or list item that does not end in
// punctuation gets a period so it is read as its own sentence. All
// whitespace is collapsed to single spaces.
func ForSpeech(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var parts []string

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "```") || ruleRe.MatchString(line) {
			continue
		}

		block := false
		if loc := headingRe.FindStringIndex(line); loc != nil {
			line, block = line[loc[1]:], true
		} else if loc := bulletRe.FindStringIndex(line); loc != nil {
			line, block = line[loc[1]:], true
		}

		line = strings.TrimPrefix(line, "> ")
		line = linkRe.ReplaceAllString(line, "$1")
		line = strings.TrimSpace(emphasis.Replace(line))

		if line == "" {
			continue
		}

		if block {
			line = endSentence(line)
		}

		parts = append(parts, line)
	}

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// endSentence appends a period when s ends in a letter or digit.
func endSentence(s string) string {
	last, _ := utf8.DecodeLastRuneInString(s)
	if unicode.IsLetter(last) || unicode.IsDigit(last) {
		return s + "."
	}

	return s
}
