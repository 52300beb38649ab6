// Package launcher prepares the application root and runs the app server
// as a child of the current executable.
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Manifest is the application entry file looked up under the app root.
const Manifest = "app.yaml"

// RequiredDirs is the fixed directory tree created under the app root.
var RequiredDirs = []string{
	"temp",
	"temp/figures",
	"temp/reports",
	"temp/saved_results",
	"temp/templates",
	"temp/exports",
	"data",
	"data/templates",
	"data/uploads",
	"docs",
	"examples",
}

// DefaultRoot is the directory of the running executable, falling back to
// the working directory.
func DefaultRoot() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exe)
}

// Setup enters the app root and creates the required directories. Both
// steps are idempotent.
func Setup(root string) error {
	if root != "" {
		if err := os.Chdir(root); err != nil {
			return fmt.Errorf("enter app root: %w", err)
		}
	}
	for _, d := range RequiredDirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// EnsureManifest verifies the application entry exists under root.
func EnsureManifest(root string) error {
	path := filepath.Join(root, Manifest)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("application manifest not found at %s", path)
	}
	return nil
}

// ServerArgs is the fixed argv the launcher passes to its own binary.
func ServerArgs() []string {
	return []string{"serve", "--host", "localhost", "--port", "8501", "--usage-stats=false", "--open-browser"}
}

// RunServer spawns the current executable as the app server and blocks
// until the child exits. SIGINT and SIGTERM are forwarded to the child;
// stopped is true when the child ended after a forwarded interrupt.
func RunServer(ctx context.Context) (stopped bool, err error) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("resolve executable: %w", err)
	}
	return runServer(ctx, exe, ServerArgs()...)
}

func runServer(ctx context.Context, exe string, args ...string) (bool, error) {
	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("start server: %w", err)
	}
	log.Debug().Int("pid", cmd.Process.Pid).Strs("args", args).Msg("server child started")

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var interrupted atomic.Bool
	done := make(chan struct{})
	go func() {
		ctxDone := ctx.Done()
		for {
			select {
			case s := <-sigCh:
				interrupted.Store(true)
				_ = cmd.Process.Signal(s)
			case <-ctxDone:
				interrupted.Store(true)
				_ = cmd.Process.Signal(os.Interrupt)
				ctxDone = nil
			case <-done:
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	if interrupted.Load() {
		return true, nil
	}
	if waitErr != nil {
		return false, fmt.Errorf("server exited: %w", waitErr)
	}
	return false, nil
}
