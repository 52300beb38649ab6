// Package parser extracts plain text from attachment files so they can be
// fed to the AI context builder. Each format registers a Parser; the
// registry picks by filename.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/datascopehq/datascope-cli/internal/utils"
)

// Parser extracts text from one attachment format.
type Parser interface {
	CanParse(filename string) bool
	Parse(path string) (string, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// SupportedExtensions lists the attachment formats in registration order.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".csv", ".tsv", ".docx", ".xlsx", ".pdf"}
}

// ParseFile selects a parser by filename and returns the extracted text.
func ParseFile(path string) (string, error) {
	for _, p := range registry {
		if p.CanParse(path) {
			return p.Parse(path)
		}
	}
	return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupported, filepath.Ext(path), strings.Join(SupportedExtensions(), ", "))
}

// EstimateTokens sizes extracted text for prompt budgeting.
func EstimateTokens(text string) int {
	return utils.CountTokens(text)
}

func init() {
	Register(txtParser{})
	Register(markdownParser{})
	Register(tableParser{})
	Register(docxParser{})
	Register(pdfParser{})
}

// ErrUnsupported indicates an attachment format with no registered parser.
var ErrUnsupported = errors.New("unsupported attachment format")
