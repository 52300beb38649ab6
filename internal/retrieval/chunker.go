package retrieval

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1200
	// DefaultChunkOverlap is how many trailing characters carry over into
	// the next chunk so sentences split across a boundary stay findable.
	DefaultChunkOverlap = 150
)

// Chunk splits text into chunks of roughly size characters, cutting at word
// boundaries and overlapping consecutive chunks by roughly overlap characters.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			if c := strings.TrimSpace(string(runes[start:])); c != "" {
				chunks = append(chunks, c)
			}
			break
		}
		cut := end
		for cut > start && !unicode.IsSpace(runes[cut]) {
			cut--
		}
		hard := cut == start
		if hard {
			// single run longer than the chunk size, hard cut
			cut = end
		}
		if c := strings.TrimSpace(string(runes[start:cut])); c != "" {
			chunks = append(chunks, c)
		}
		var next int
		if hard {
			next = cut
		} else {
			next = wordStart(runes, cut-overlap)
			if next <= start {
				next = wordStart(runes, cut)
			}
			if next <= start {
				next = cut + 1
			}
		}
		start = next
	}
	return chunks
}

// wordStart advances i to the beginning of the next word.
func wordStart(runes []rune, i int) int {
	for i > 0 && i < len(runes) && !unicode.IsSpace(runes[i-1]) {
		i++
	}
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}
