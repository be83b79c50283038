package text

import (
	"regexp"
	"strconv"
)

// scoreRe matches "Score: 85", "**Score:** 85/100" or "score - 85".
var scoreRe = regexp.MustCompile(`(?i)\bscore\**\s*[:\-]?\**\s*(\d+)\s*(?:/\s*100|%)?`)

// ParseScore extracts the understanding score (0-100) from feedback text.
// The last score mention wins, since the reply ends with the "Score: N"
// line. It reports false when no score is present or the value is out of
// range.
func ParseScore(s string) (int, bool) {
	all := scoreRe.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return 0, false
	}
	m := all[len(all)-1]

	n, err := strconv.Atoi(m[1])
	if err != nil || n > 100 {
		return 0, false
	}

	return n, true
}
