package launcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const helperEnv = "DATASCOPE_LAUNCHER_HELPER"

// TestHelperProcess is not a real test; the runServer tests re-run the test
// binary with this helper selected to stand in for the server child.
func TestHelperProcess(t *testing.T) {
	switch os.Getenv(helperEnv) {
	case "":
		return
	case "exit0":
		os.Exit(0)
	case "exit1":
		os.Exit(1)
	case "sleep":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	}
}

func helperArgs() []string {
	return []string{"-test.run=TestHelperProcess"}
}

func TestSetupIdempotent(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	root := t.TempDir()
	for i := 0; i < 2; i++ {
		if err := Setup(root); err != nil {
			t.Fatalf("Setup pass %d: %v", i+1, err)
		}
	}
	for _, d := range RequiredDirs {
		info, err := os.Stat(filepath.Join(root, d))
		if err != nil {
			t.Fatalf("missing %s: %v", d, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", d)
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if resolved, _ := filepath.EvalSymlinks(root); resolved != "" {
		if wdResolved, _ := filepath.EvalSymlinks(wd); wdResolved != resolved {
			t.Fatalf("wd = %s, want %s", wd, root)
		}
	}
}

func TestSetupKeepsExistingContent(t *testing.T) {
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })

	root := t.TempDir()
	if err := Setup(root); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(root, "temp", "figures", "keep.svg")
	if err := os.WriteFile(marker, []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Setup(root); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("existing file lost: %v", err)
	}
}

func TestEnsureManifest(t *testing.T) {
	root := t.TempDir()
	err := EnsureManifest(root)
	if err == nil {
		t.Fatal("expected an error without app.yaml")
	}
	if !strings.Contains(err.Error(), filepath.Join(root, Manifest)) {
		t.Fatalf("err = %v, want the manifest path named", err)
	}

	if err := os.WriteFile(filepath.Join(root, Manifest), []byte("name: demo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureManifest(root); err != nil {
		t.Fatalf("EnsureManifest: %v", err)
	}
}

func TestServerArgs(t *testing.T) {
	got := strings.Join(ServerArgs(), " ")
	want := "serve --host localhost --port 8501 --usage-stats=false --open-browser"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestRunServerChildExits(t *testing.T) {
	t.Setenv(helperEnv, "exit0")
	stopped, err := runServer(context.Background(), os.Args[0], helperArgs()...)
	if err != nil {
		t.Fatalf("runServer: %v", err)
	}
	if stopped {
		t.Fatal("clean exit should not report a user stop")
	}
}

func TestRunServerChildFails(t *testing.T) {
	t.Setenv(helperEnv, "exit1")
	stopped, err := runServer(context.Background(), os.Args[0], helperArgs()...)
	if err == nil || stopped {
		t.Fatalf("stopped=%v err=%v, want a child failure", stopped, err)
	}
	if !strings.Contains(err.Error(), "server exited") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunServerForwardsInterrupt(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interrupt delivery not supported on windows")
	}
	t.Setenv(helperEnv, "sleep")

	go func() {
		time.Sleep(300 * time.Millisecond)
		p, err := os.FindProcess(os.Getpid())
		if err == nil {
			_ = p.Signal(os.Interrupt)
		}
	}()

	start := time.Now()
	stopped, err := runServer(context.Background(), os.Args[0], helperArgs()...)
	if err != nil {
		t.Fatalf("runServer: %v", err)
	}
	if !stopped {
		t.Fatal("forwarded interrupt should report a user stop")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("child did not stop promptly after the interrupt")
	}
}

func TestRunServerContextCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interrupt delivery not supported on windows")
	}
	t.Setenv(helperEnv, "sleep")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	stopped, err := runServer(ctx, os.Args[0], helperArgs()...)
	if err != nil {
		t.Fatalf("runServer: %v", err)
	}
	if !stopped {
		t.Fatal("context cancel should count as a stop")
	}
}
