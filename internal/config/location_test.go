package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/custom/goap.conf")
		path, err := GetConfigPath()
		if err != nil {
			t.Fatal(err)
		}
		if path != "/custom/goap.conf" {
			t.Errorf("got %q", path)
		}
	})

	t.Run("home directory", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}
		path, err := GetConfigPath()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(home, ".goap", "config"); path != want {
			t.Errorf("got %q, want %q", path, want)
		}
	})
}

func TestDataPath(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join("/etc", "goap", "config"))
	path, err := DataPath("journal.db")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/etc", "goap", "journal.db"); path != want {
		t.Errorf("got %q, want %q", path, want)
	}
}
