package parser

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func swapPDFExtract(t *testing.T, installed bool, out string, err error) *[]string {
	t.Helper()
	var paths []string
	origLook, origRun := lookPath, runPDFExtract
	lookPath = func(file string) (string, error) {
		if installed {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}
	runPDFExtract = func(ctx context.Context, path string) ([]byte, error) {
		paths = append(paths, path)
		return []byte(out), err
	}
	t.Cleanup(func() {
		lookPath, runPDFExtract = origLook, origRun
	})
	return &paths
}

func TestPDFParseMissingTool(t *testing.T) {
	calls := swapPDFExtract(t, false, "", nil)
	_, err := pdfParser{}.Parse("report.pdf")
	if err == nil || !strings.Contains(err.Error(), "pdftotext is not installed") {
		t.Fatalf("err = %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("extractor ran despite missing tool: %v", *calls)
	}
}

func TestPDFParseTrimsOutput(t *testing.T) {
	calls := swapPDFExtract(t, true, "\n\n  Extracted body text.  \n", nil)
	out, err := pdfParser{}.Parse("report.pdf")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out != "Extracted body text." {
		t.Fatalf("out = %q", out)
	}
	if len(*calls) != 1 || (*calls)[0] != "report.pdf" {
		t.Fatalf("calls = %v", *calls)
	}
}

func TestPDFParseExtractFailure(t *testing.T) {
	swapPDFExtract(t, true, "", errors.New("exit status 1"))
	_, err := pdfParser{}.Parse("scan.pdf")
	if err == nil || !strings.Contains(err.Error(), "pdftotext failed on scan.pdf") {
		t.Fatalf("err = %v", err)
	}
}
