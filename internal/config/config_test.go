package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromReader(t *testing.T) {
	input := `# planner defaults
log.level debug
planner.capacity 256

[plan]
goal survive

[history]
limit 5
`
	config, err := LoadFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if v, ok := config.GetGlobalOption("log.level"); !ok || v != "debug" {
		t.Errorf("expected log.level=debug, got %q (%v)", v, ok)
	}
	if v, _ := config.GetGlobalOption("planner.capacity"); v != "256" {
		t.Errorf("expected planner.capacity=256, got %q", v)
	}
	if v, _ := config.GetCommandOption("plan", "goal"); v != "survive" {
		t.Errorf("expected plan goal=survive, got %q", v)
	}
	if v, _ := config.GetCommandOption("history", "limit"); v != "5" {
		t.Errorf("expected history limit=5, got %q", v)
	}
	if config.HasWarnings() {
		t.Errorf("unexpected warnings: %v", config.Warnings)
	}
}

func TestLoadFromReader_CommandFallsBackToGlobal(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("exec.max-cycles 3\n[simulate]\nagents 4\n"))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := config.GetCommandOption("simulate", "exec.max-cycles"); !ok || v != "3" {
		t.Errorf("expected global fallback 3, got %q (%v)", v, ok)
	}
	if _, ok := config.GetCommandOption("unknown", "nope"); ok {
		t.Error("expected missing option")
	}
}

func TestLoadFromReader_Warnings(t *testing.T) {
	input := "bogus 1\nplanner.capacity lots\n[history]\nlimit ten\nwhat ever\n"
	config, err := LoadFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(config.Warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %d: %v", len(config.Warnings), config.Warnings)
	}
	joined := strings.Join(config.Warnings, "\n")
	for _, want := range []string{`"bogus"`, `"planner.capacity"`, `"limit" in [history]`, `"what"`} {
		if !strings.Contains(joined, want) {
			t.Errorf("warnings missing %s:\n%s", want, joined)
		}
	}
	// values are still loaded
	if v, _ := config.GetGlobalOption("bogus"); v != "1" {
		t.Errorf("expected bogus=1, got %q", v)
	}
}

func TestLoadFromReader_KeyWithoutValue(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("journal.path\n"))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := config.GetGlobalOption("journal.path"); !ok || v != "" {
		t.Errorf("expected empty value, got %q (%v)", v, ok)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadFromPath(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("missing file should load empty: %v", err)
	}
	if len(config.Global) != 0 {
		t.Errorf("expected empty config, got %v", config.Global)
	}

	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("log.level warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := config.GetGlobalOption("log.level"); v != "warn" {
		t.Errorf("expected warn, got %q", v)
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := LoadFromPath(link); err == nil || !strings.Contains(err.Error(), "symlink") {
		t.Errorf("expected symlink error, got %v", err)
	}
}

func TestSetOptions(t *testing.T) {
	config := NewConfig()
	config.SetGlobalOption("log.level", "error")
	config.SetCommandOption("plan", "goal", "kill")

	if v, _ := config.GetGlobalOption("log.level"); v != "error" {
		t.Errorf("got %q", v)
	}
	if v, _ := config.GetCommandOption("plan", "goal"); v != "kill" {
		t.Errorf("got %q", v)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", "On"} {
		if b, err := parseBool(s); err != nil || !b {
			t.Errorf("parseBool(%q) = %v, %v", s, b, err)
		}
	}
	for _, s := range []string{"false", "0", "no", "OFF"} {
		if b, err := parseBool(s); err != nil || b {
			t.Errorf("parseBool(%q) = %v, %v", s, b, err)
		}
	}
	if _, err := parseBool("maybe"); err == nil {
		t.Error("expected error")
	}
}

func TestConfig_LogWarnings(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("bogus 1\n"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	config.LogWarnings(slog.New(slog.NewTextHandler(&buf, nil)))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "[config]") || !strings.Contains(out, "bogus") {
		t.Errorf("unexpected log output %q", out)
	}

	buf.Reset()
	NewConfig().LogWarnings(slog.New(slog.NewTextHandler(&buf, nil)))
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
