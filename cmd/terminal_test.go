package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeZellij writes a zellij stand-in that appends its first four
// arguments to a log file, one invocation per line. Later arguments may
// hold newlines and are left out.
func fakeZellij(t *testing.T) (bin, log string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	bin = filepath.Join(dir, "zellij")
	log = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\nprintf '%s %s %s %s\\n' \"$1\" \"$2\" \"$3\" \"$4\" >> '" + log + "'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, log
}

func resetRootFlags(t *testing.T) {
	t.Cleanup(func() {
		flagZellij, flagSession, flagLogLevel = "", "", ""
		for _, name := range []string{"zellij", "session", "log-level"} {
			rootCmd.PersistentFlags().Lookup(name).Changed = false
		}
		rootCmd.SetArgs(nil)
	})
}

func TestRun_SessionFlagWinsOverProjectConfig(t *testing.T) {
	bin, log := fakeZellij(t)
	resetRootFlags(t)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ZELLIJ", "")
	t.Setenv("ZELLIJ_SESSION_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	proj := t.TempDir()
	cfg := `{'session': 'dev', 'tabs': {'build': {'cmd': ['make']}}}`
	if err := os.WriteFile(filepath.Join(proj, ".subl-zellij"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(proj)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--zellij", bin, "--session", "other", "--log-level", "error", "run", "build"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run build: %v\n%s", err, errOut.String())
	}

	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected the task to run, calls:\n%s", data)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "--session other ") {
			t.Errorf("call %q does not target session other", l)
		}
	}
}
