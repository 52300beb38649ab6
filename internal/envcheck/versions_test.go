package envcheck

import (
	"context"
	"errors"
	"os/exec"
	"runtime/debug"
	"strings"
	"testing"
)

func TestModulesFrom(t *testing.T) {
	info := &debug.BuildInfo{
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.8.1"},
			{Path: "github.com/rs/zerolog", Version: "v1.33.0"},
			{
				Path:    "github.com/tidwall/gjson",
				Version: "v1.17.0",
				Replace: &debug.Module{Path: "github.com/tidwall/gjson", Version: "v1.18.0"},
			},
		},
	}
	lines := modulesFrom(info)
	if len(lines) != len(moduleTargets) {
		t.Fatalf("lines = %d, want %d", len(lines), len(moduleTargets))
	}
	byName := map[string]VersionLine{}
	for _, l := range lines {
		byName[l.Name] = l
	}
	if byName["cobra"].Version != "v1.8.1" {
		t.Fatalf("cobra = %q", byName["cobra"].Version)
	}
	if byName["gjson"].Version != "v1.18.0" {
		t.Fatalf("gjson should follow the replace directive, got %q", byName["gjson"].Version)
	}
	if byName["viper"].Version != "UNKNOWN (not in build info)" {
		t.Fatalf("viper = %q", byName["viper"].Version)
	}
}

func TestModulesFromNilInfo(t *testing.T) {
	lines := modulesFrom(nil)
	for _, l := range lines {
		if l.Version != "UNKNOWN (not in build info)" {
			t.Fatalf("%s = %q, want UNKNOWN", l.Name, l.Version)
		}
	}
}

func TestVersionLineString(t *testing.T) {
	ok := VersionLine{Name: "pandoc", Version: "pandoc 3.1.9"}
	if got := ok.String(); got != "pandoc: pandoc 3.1.9" {
		t.Fatalf("String() = %q", got)
	}

	missing := VersionLine{Name: "ollama", Err: &exec.Error{Name: "ollama", Err: exec.ErrNotFound}}
	got := missing.String()
	if !strings.HasPrefix(got, "ollama: NOT INSTALLED (NotFound:") {
		t.Fatalf("String() = %q", got)
	}
}

func swapExec(t *testing.T, fn func(name string, args []string) ([]byte, error)) {
	t.Helper()
	orig := execCombined
	t.Cleanup(func() { execCombined = orig })
	execCombined = func(_ context.Context, name string, args ...string) ([]byte, error) {
		return fn(name, args)
	}
}

func TestToolVersionFirstLine(t *testing.T) {
	swapExec(t, func(string, []string) ([]byte, error) {
		return []byte("pandoc 3.1.9\nCompiled with pandoc-types 1.23\n"), nil
	})
	got, err := ToolVersion(context.Background(), "pandoc", "--version")
	if err != nil {
		t.Fatalf("ToolVersion: %v", err)
	}
	if got != "pandoc 3.1.9" {
		t.Fatalf("version = %q", got)
	}
}

func TestToolVersionBannerOnExitError(t *testing.T) {
	// pdftotext -v prints the banner and can still exit non-zero.
	swapExec(t, func(string, []string) ([]byte, error) {
		return []byte("pdftotext version 22.02.0\n"), errors.New("exit status 99")
	})
	got, err := ToolVersion(context.Background(), "pdftotext", "-v")
	if err != nil {
		t.Fatalf("ToolVersion: %v", err)
	}
	if got != "pdftotext version 22.02.0" {
		t.Fatalf("version = %q", got)
	}
}

func TestToolVersionError(t *testing.T) {
	swapExec(t, func(string, []string) ([]byte, error) {
		return nil, &exec.Error{Name: "ollama", Err: exec.ErrNotFound}
	})
	_, err := ToolVersion(context.Background(), "ollama", "--version")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errKind(err) != "NotFound" {
		t.Fatalf("kind = %q, want NotFound", errKind(err))
	}
}

func TestErrKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &exec.Error{Name: "x", Err: exec.ErrNotFound}, "NotFound"},
		{"timeout", context.DeadlineExceeded, "Timeout"},
		{"generic", errors.New("boom"), "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errKind(tt.err); got != tt.want {
				t.Fatalf("errKind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct{ in, want string }{
		{"one\ntwo", "one"},
		{"  padded  \nrest", "padded"},
		{"single", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.want {
			t.Fatalf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
