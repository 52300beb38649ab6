package parser

import (
	"fmt"
	"os"
	"strings"
)

type txtParser struct{}

func (txtParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".txt")
}

func (txtParser) Parse(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	return string(data), nil
}
