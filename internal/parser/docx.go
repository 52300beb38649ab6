package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

type docxParser struct{}

func (docxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".docx")
}

var docxTags = regexp.MustCompile(`<[^>]+>`)

// Parse opens the docx zip, pulls word/document.xml and strips the XML
// markup. Paragraph boundaries become newlines.
func (docxParser) Parse(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("document.xml not found in %s", path)
	}

	text := strings.ReplaceAll(string(docXML), "</w:p>", "</w:p>\n")
	text = docxTags.ReplaceAllString(text, "")
	return strings.TrimSpace(normalizeText(text)), nil
}
