package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// ChunkText packs sentences into chunks of at most maxLen runes, each terminated
// with a period. Sentences longer than maxLen are hard-split.
func ChunkText(text string, maxLen int) []string {
	if maxLen <= 1 {
		maxLen = 2
	}
	var (
		chunks  []string
		current strings.Builder
		curLen  int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, current.String()+".")
			current.Reset()
			curLen = 0
		}
	}

	for _, raw := range sentenceEnd.Split(text, -1) {
		sentence := strings.TrimSpace(raw)
		n := utf8.RuneCountInString(sentence)
		if n == 0 {
			continue
		}

		sep := 0
		if curLen > 0 {
			sep = 2 // ". "
		}
		if curLen+sep+n+1 <= maxLen {
			if sep > 0 {
				current.WriteString(". ")
			}
			current.WriteString(sentence)
			curLen += sep + n
			continue
		}

		flush()
		// room for the trailing period
		for n+1 > maxLen {
			runes := []rune(sentence)
			piece := strings.TrimSpace(string(runes[:maxLen-1]))
			if piece != "" {
				chunks = append(chunks, piece+".")
			}
			sentence = strings.TrimSpace(string(runes[maxLen-1:]))
			n = utf8.RuneCountInString(sentence)
		}
		if n > 0 {
			current.WriteString(sentence)
			curLen = n
		}
	}
	flush()
	return chunks
}
