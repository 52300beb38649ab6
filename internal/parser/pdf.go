package parser

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const pdfExtractTimeout = 30 * time.Second

type pdfParser struct{}

func (pdfParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// Swappable for tests.
var (
	lookPath      = exec.LookPath
	runPDFExtract = func(ctx context.Context, path string) ([]byte, error) {
		return exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	}
)

// Parse shells out to pdftotext, writing the extracted text to stdout.
func (pdfParser) Parse(path string) (string, error) {
	if _, err := lookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext is not installed; PDF attachments need poppler-utils (run 'datascope launch' to install it, or install poppler manually)")
	}
	ctx, cancel := context.WithTimeout(context.Background(), pdfExtractTimeout)
	defer cancel()
	out, err := runPDFExtract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("pdftotext failed on %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
