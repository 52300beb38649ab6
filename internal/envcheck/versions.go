package envcheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime/debug"
	"strings"
	"time"
)

const toolProbeTimeout = 5 * time.Second

// VersionLine is one resolved report target.
type VersionLine struct {
	Name    string
	Version string
	Err     error
}

// String renders the line the way the versions command prints it.
func (v VersionLine) String() string {
	if v.Err != nil {
		return fmt.Sprintf("%s: NOT INSTALLED (%s: %v)", v.Name, errKind(v.Err), v.Err)
	}
	return fmt.Sprintf("%s: %s", v.Name, v.Version)
}

// moduleTargets are the dependencies reported from build info.
var moduleTargets = []struct{ Name, Path string }{
	{"cobra", "github.com/spf13/cobra"},
	{"viper", "github.com/spf13/viper"},
	{"echo", "github.com/labstack/echo/v4"},
	{"zerolog", "github.com/rs/zerolog"},
	{"go-openai", "github.com/sashabaranov/go-openai"},
	{"bbolt", "go.etcd.io/bbolt"},
	{"sonic", "github.com/bytedance/sonic"},
	{"lo", "github.com/samber/lo"},
	{"gjson", "github.com/tidwall/gjson"},
	{"fasttemplate", "github.com/valyala/fasttemplate"},
	{"uuid", "github.com/google/uuid"},
	{"godotenv", "github.com/joho/godotenv"},
	{"yaml.v3", "gopkg.in/yaml.v3"},
}

// toolTargets are the external tools probed with their version flag.
var toolTargets = []struct {
	Name string
	Args []string
}{
	{"ollama", []string{"--version"}},
	{"pandoc", []string{"--version"}},
	{"pdftotext", []string{"-v"}},
}

// ModuleVersions resolves the module targets from the running binary's
// build info.
func ModuleVersions() []VersionLine {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		info = nil
	}
	return modulesFrom(info)
}

func modulesFrom(info *debug.BuildInfo) []VersionLine {
	byPath := map[string]string{}
	if info != nil {
		for _, dep := range info.Deps {
			m := dep
			if m.Replace != nil {
				m = m.Replace
			}
			byPath[dep.Path] = m.Version
		}
	}
	out := make([]VersionLine, 0, len(moduleTargets))
	for _, t := range moduleTargets {
		if v, found := byPath[t.Path]; found && v != "" {
			out = append(out, VersionLine{Name: t.Name, Version: v})
			continue
		}
		out = append(out, VersionLine{Name: t.Name, Version: "UNKNOWN (not in build info)"})
	}
	return out
}

// Swappable for tests.
var execCombined = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ToolVersion probes one tool with a 5s timeout and returns the first
// output line. Tools that print their version banner and still exit
// non-zero (pdftotext does) are treated as resolved.
func ToolVersion(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, toolProbeTimeout)
	defer cancel()
	out, err := execCombined(ctx, name, args...)
	line := firstLine(string(out))
	if line != "" {
		return line, nil
	}
	if err != nil {
		return "", err
	}
	return "", fmt.Errorf("no version output")
}

// ToolVersions probes every tool target.
func ToolVersions(ctx context.Context) []VersionLine {
	out := make([]VersionLine, 0, len(toolTargets))
	for _, t := range toolTargets {
		v, err := ToolVersion(ctx, t.Name, t.Args...)
		out = append(out, VersionLine{Name: t.Name, Version: v, Err: err})
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// errKind names the failure class for NOT INSTALLED lines.
func errKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, exec.ErrNotFound):
		return "NotFound"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "ExitError"
		}
		return "Error"
	}
}
