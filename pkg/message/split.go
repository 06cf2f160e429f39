package message

import (
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest text Telegram accepts in one message
const MaxLength = 4096

// Split breaks text into chunks of at most limit characters, cutting on line
// boundaries when possible. Lines longer than limit are cut hard.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxLength
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if chunk := strings.TrimSuffix(current.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		size = 0
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}

		if size+len(runes)+1 > limit+1 {
			flush()
		}
		current.WriteString(string(runes))
		current.WriteByte('\n')
		size += len(runes) + 1
	}
	flush()

	return chunks
}
