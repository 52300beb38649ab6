// Package envcheck probes the external runtime environment: required
// tools, their versions, and the system package installer used to pull in
// anything missing.
package envcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Dependency is one external tool the platform shells out to.
type Dependency struct {
	Name    string // display name
	Binary  string // probed with exec.LookPath
	Package string // package-manager package name
	Hint    string // manual install pointer
}

// Dependencies returns the fixed set of external runtime dependencies.
func Dependencies() []Dependency {
	return []Dependency{
		{Name: "Ollama", Binary: "ollama", Package: "ollama", Hint: "https://ollama.com/download"},
		{Name: "Poppler (pdftotext)", Binary: "pdftotext", Package: "poppler-utils", Hint: "install poppler-utils (poppler on brew)"},
		{Name: "Pandoc", Binary: "pandoc", Package: "pandoc", Hint: "https://pandoc.org/installing.html"},
	}
}

// Installer is a detected system package manager.
type Installer struct {
	Name string
	// Args yields the full argument list for installing pkg.
	Args func(pkg string) []string
}

// installers in detection order.
var installers = []Installer{
	{Name: "apt-get", Args: func(pkg string) []string { return []string{"install", "-y", pkg} }},
	{Name: "dnf", Args: func(pkg string) []string { return []string{"install", pkg} }},
	{Name: "pacman", Args: func(pkg string) []string { return []string{"-S", pkg} }},
	{Name: "brew", Args: func(pkg string) []string { return []string{"install", pkg} }},
	{Name: "choco", Args: func(pkg string) []string { return []string{"install", pkg} }},
}

// Swappable for tests.
var (
	lookPath   = exec.LookPath
	runInstall = func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
)

// DetectInstaller finds the first available package manager.
func DetectInstaller() (Installer, bool) {
	for _, ins := range installers {
		if _, err := lookPath(ins.Name); err == nil {
			return ins, true
		}
	}
	return Installer{}, false
}

// DepStatus is the outcome for one dependency after the probe and the
// optional install attempt.
type DepStatus struct {
	Dep       Dependency
	Found     bool
	Attempted bool
	Installed bool
	Err       error
}

// CheckDependencies probes every dependency and tries to install each
// missing one exactly once through the detected installer, writing progress
// to w. The returned flag is true when any install ran; the caller should
// ask the user to re-run instead of continuing.
func CheckDependencies(ctx context.Context, w io.Writer) ([]DepStatus, bool) {
	deps := Dependencies()
	statuses := make([]DepStatus, 0, len(deps))
	attempted := false

	var installer Installer
	haveInstaller := false
	probedInstaller := false

	for _, dep := range deps {
		st := DepStatus{Dep: dep}
		if _, err := lookPath(dep.Binary); err == nil {
			st.Found = true
			fmt.Fprintf(w, "✓ %s found\n", dep.Name)
			statuses = append(statuses, st)
			continue
		}
		fmt.Fprintf(w, "✗ %s not found\n", dep.Name)

		if !probedInstaller {
			installer, haveInstaller = DetectInstaller()
			probedInstaller = true
		}
		if !haveInstaller {
			st.Err = fmt.Errorf("no package installer found")
			fmt.Fprintf(w, "  install manually: %s\n", dep.Hint)
			statuses = append(statuses, st)
			continue
		}

		st.Attempted = true
		attempted = true
		fmt.Fprintf(w, "  installing %s via %s...\n", dep.Package, installer.Name)
		log.Debug().Str("installer", installer.Name).Str("package", dep.Package).Msg("attempting install")
		if err := runInstall(ctx, installer.Name, installer.Args(dep.Package)...); err != nil {
			st.Err = err
			fmt.Fprintf(w, "✗ %s install failed: %v\n", dep.Name, err)
			fmt.Fprintf(w, "  install manually: %s\n", dep.Hint)
		} else {
			st.Installed = true
			fmt.Fprintf(w, "✓ %s installed\n", dep.Name)
		}
		statuses = append(statuses, st)
	}
	return statuses, attempted
}

// MissingDependencies reports the binaries that are still absent.
func MissingDependencies() []Dependency {
	var missing []Dependency
	for _, dep := range Dependencies() {
		if _, err := lookPath(dep.Binary); err != nil {
			missing = append(missing, dep)
		}
	}
	return missing
}
