package workspace

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/datascopehq/datascope-cli/internal/utils"
)

const exportTimeout = 60 * time.Second

// ExportFormats lists the supported pandoc targets.
func ExportFormats() []string { return []string{"docx", "pdf"} }

// Swappable for tests.
var (
	lookPath  = exec.LookPath
	runPandoc = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, "pandoc", args...).CombinedOutput()
	}
)

// ExportReport converts a markdown report to docx or pdf under temp/exports
// via pandoc, returning the written path.
func (w *Workspace) ExportReport(ctx context.Context, markdownPath, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	supported := false
	for _, f := range ExportFormats() {
		if f == format {
			supported = true
			break
		}
	}
	if !supported {
		return "", fmt.Errorf("unsupported export format %q (supported: %s)", format, strings.Join(ExportFormats(), ", "))
	}
	if _, err := lookPath("pandoc"); err != nil {
		return "", fmt.Errorf("pandoc is not installed; report export to %s needs it (https://pandoc.org/installing.html)", format)
	}
	if err := utils.EnsureDir(w.ExportsDir()); err != nil {
		return "", fmt.Errorf("ensure exports dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(markdownPath), filepath.Ext(markdownPath))
	out := filepath.Join(w.ExportsDir(), base+"."+format)

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	log.Debug().Str("src", markdownPath).Str("out", out).Msg("running pandoc export")
	if output, err := runPandoc(ctx, markdownPath, "-o", out); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return "", fmt.Errorf("pandoc export failed: %v: %s", err, msg)
		}
		return "", fmt.Errorf("pandoc export failed: %w", err)
	}
	return out, nil
}
