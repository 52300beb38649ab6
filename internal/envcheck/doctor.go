package envcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DoctorCheck is one numbered diagnostic.
type DoctorCheck struct {
	Name string
	Run  func(ctx context.Context) CheckOutcome
}

// CheckOutcome carries the verdict and remediation for one check.
type CheckOutcome struct {
	OK       bool
	Detail   string // extra note appended after OK
	Err      string
	Solution string
}

// Pass wraps a passing outcome with an optional detail note.
func Pass(detail string) CheckOutcome { return CheckOutcome{OK: true, Detail: detail} }

// Fail wraps a failing outcome with its remediation.
func Fail(err, solution string) CheckOutcome {
	return CheckOutcome{Err: err, Solution: solution}
}

// RunDoctor executes the checks in order, printing one numbered line per
// check, and returns how many passed.
func RunDoctor(ctx context.Context, w io.Writer, checks []DoctorCheck) (passed, total int) {
	total = len(checks)
	for i, c := range checks {
		fmt.Fprintf(w, "%d. Checking %s... ", i+1, c.Name)
		out := c.Run(ctx)
		if out.OK {
			passed++
			if out.Detail != "" {
				fmt.Fprintf(w, "✅ OK (%s)\n", out.Detail)
			} else {
				fmt.Fprintln(w, "✅ OK")
			}
			continue
		}
		fmt.Fprintln(w, "❌ FAILED")
		if out.Err != "" {
			fmt.Fprintf(w, "   Error: %s\n", out.Err)
		}
		if out.Solution != "" {
			fmt.Fprintf(w, "   Solution: %s\n", out.Solution)
		}
	}
	fmt.Fprintf(w, "\n%d/%d checks passed\n", passed, total)
	return passed, total
}

// CheckRuntime reports the Go runtime this binary was built with.
func CheckRuntime(context.Context) CheckOutcome {
	return Pass(fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH))
}

// CheckTools probes the external tools and fails when any is absent.
func CheckTools(ctx context.Context) CheckOutcome {
	var missing, found []string
	for _, line := range ToolVersions(ctx) {
		if line.Err != nil {
			missing = append(missing, line.Name)
			continue
		}
		found = append(found, fmt.Sprintf("%s: %s", line.Name, line.Version))
	}
	if len(missing) > 0 {
		return Fail(
			fmt.Sprintf("missing tools: %s", strings.Join(missing, ", ")),
			"run 'datascope launch' to install them, or install manually",
		)
	}
	return Pass(strings.Join(found, "; "))
}

// CheckFileStructure verifies required files exist and creates required
// directories that are absent, noting each created one.
func CheckFileStructure(root string, files, dirs []string) CheckOutcome {
	var missing []string
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(root, f)); err != nil {
			missing = append(missing, f)
		}
	}
	var created []string
	for _, d := range dirs {
		path := filepath.Join(root, d)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return Fail(
				fmt.Sprintf("cannot create %s: %v", d, err),
				"check permissions on the application root",
			)
		}
		created = append(created, d)
	}
	if len(missing) > 0 {
		return Fail(
			fmt.Sprintf("missing required files: %s", strings.Join(missing, ", ")),
			"run 'datascope init' to scaffold the project",
		)
	}
	if len(created) > 0 {
		return Pass(fmt.Sprintf("%s (created)", strings.Join(created, ", ")))
	}
	return Pass("")
}

// APIKeyStatus describes one provider key variable without exposing it.
type APIKeyStatus struct {
	Name   string
	Set    bool
	Length int
}

// APIKeyEnvs lists the provider key variables in report order.
func APIKeyEnvs() []string {
	return []string{"OPENAI_API_KEY", "QWEN_API_KEY", "CHATGLM_API_KEY"}
}

// CheckAPIKeys reports which provider keys are configured. Only presence
// and length are ever revealed. keyless marks a provider that needs no key
// (ollama), which passes the check on its own.
func CheckAPIKeys(keyless bool) (CheckOutcome, []APIKeyStatus) {
	var statuses []APIKeyStatus
	var set []string
	for _, name := range APIKeyEnvs() {
		v := os.Getenv(name)
		st := APIKeyStatus{Name: name, Set: v != "", Length: len(v)}
		statuses = append(statuses, st)
		if st.Set {
			set = append(set, fmt.Sprintf("%s (%d chars)", name, st.Length))
		}
	}
	if len(set) > 0 {
		return Pass(strings.Join(set, ", ")), statuses
	}
	if keyless {
		return Pass("no keys set; configured provider needs none"), statuses
	}
	return Fail(
		"no API key environment variables are set",
		"export OPENAI_API_KEY, QWEN_API_KEY or CHATGLM_API_KEY, or switch to the ollama provider",
	), statuses
}
