package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "GOAP_CONFIG"

// GetConfigPath returns $GOAP_CONFIG when set, else ~/.goap/config.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".goap", "config"), nil
}

// DataPath returns name inside the configuration directory, e.g. the default
// journal database.
func DataPath(name string) (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(configPath), name), nil
}
