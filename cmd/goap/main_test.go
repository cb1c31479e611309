package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points every path the binary resolves at a temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GOAP_CONFIG", filepath.Join(dir, "config"))
	for _, key := range []string{"GOAP_LOG_FILE", "GOAP_LOG_LEVEL", "GOAP_DOMAIN", "GOAP_JOURNAL"} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{nil, {"help"}, {"-h"}} {
		stdout, _, err := runArgs(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(stdout, "Usage: goap <command>") {
			t.Errorf("%v: expected general help, got:\n%s", args, stdout)
		}
	}

	stdout, _, err := runArgs(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "goap version "+version+"\n" {
		t.Errorf("unexpected version output %q", stdout)
	}

	_, stderr, err := runArgs(t, "bogus")
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if !strings.Contains(stderr, "Unknown command: bogus") {
		t.Errorf("unexpected stderr %q", stderr)
	}

	if _, _, err := runArgs(t, "plan", "-h"); err != nil {
		t.Errorf("command help should not fail: %v", err)
	}
	if _, _, err := runArgs(t, "-log-level", "loud", "version"); err == nil {
		t.Error("expected an invalid log level error")
	}
}

func TestRun_PlanExample(t *testing.T) {
	isolate(t)

	stdout, _, err := runArgs(t, "plan")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"domain:  soldier", "outcome: found", "cost: 4", "1. scout", "2. load", "3. aim", "4. shoot"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("missing %q in:\n%s", want, stdout)
		}
	}
}

func TestRun_ConfigRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "other.conf")

	if _, _, err := runArgs(t, "-config", cfgPath, "config", "planner.capacity", "2"); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := runArgs(t, "-config", cfgPath, "config", "planner.capacity")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "planner.capacity: 2\n" {
		t.Errorf("unexpected output %q", stdout)
	}

	// a capacity of two cannot hold the example search
	stdout, _, err = runArgs(t, "-config", cfgPath, "plan")
	if err == nil {
		t.Fatalf("expected the plan to fail, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "capacity-exceeded") {
		t.Errorf("expected capacity-exceeded in:\n%s", stdout)
	}
}

func TestRun_ConfigWarningsReachLogFile(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config")
	logPath := filepath.Join(dir, "goap.log")
	if err := os.WriteFile(cfgPath, []byte("bogus.option 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runArgs(t, "-log-file", logPath, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(stderr, "bogus.option") {
		t.Errorf("config warning leaked to stderr: %q", stderr)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[config]") || !strings.Contains(string(data), "bogus.option") {
		t.Errorf("expected the config warning in the log file, got:\n%s", data)
	}
}
