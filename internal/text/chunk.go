package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkChars bounds one speech request. Longer replies are split so a
// single slow or failed request does not cost the whole turn.
const DefaultChunkChars = 800

// ChunkBySentence splits text into chunks at sentence boundaries, grouping
// consecutive sentences together while staying within maxChars per chunk.
// If maxChars is 0, no splitting is performed.
// Sentences that individually exceed maxChars are kept intact as a single chunk.
func ChunkBySentence(text string, maxChars int) []string {
	if maxChars <= 0 {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, s := range sentences {
		if current.Len() == 0 {
			current.WriteString(s)
			continue
		}

		if current.Len()+1+len(s) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(s)
		} else {
			current.WriteByte(' ')
			current.WriteString(s)
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitSentences splits text after runs of sentence-ending punctuation
// (., !, ?, …) that are followed by whitespace or the end of the text, and at
// line breaks. "3.14", "e.g.x" and "Wait?!" therefore stay whole.
// Empty segments are dropped.
func splitSentences(text string) []string {
	var sentences []string

	emit := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch {
		case r == '\n':
			emit(text[start:i])
			start = i + size
		case isTerminator(r):
			end := i + size
			for end < len(text) {
				next, n := utf8.DecodeRuneInString(text[end:])
				if !isTerminator(next) {
					break
				}
				end += n
			}

			if end == len(text) {
				emit(text[start:end])
				start = end
			} else if next, _ := utf8.DecodeRuneInString(text[end:]); unicode.IsSpace(next) {
				emit(text[start:end])
				start = end
			}

			i = end

			continue
		}

		i += size
	}

	if start < len(text) {
		emit(text[start:])
	}

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}
