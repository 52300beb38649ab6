package parser

import (
	"fmt"
	"os"
	"strings"
)

type markdownParser struct{}

func (markdownParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown")
}

func (markdownParser) Parse(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	return normalizeText(string(data)), nil
}

// normalizeText unifies line endings and collapses runs of blank lines.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}
