package pathing

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultDataDir   = "/var/lib/energy_monitor"
	defaultConfigDir = "/etc/energy_monitor"
)

// EnsureDirs creates the directories the services write to.
func EnsureDirs() error {
	// Directories that must exist:
	dirs := []string{
		GetDataDir(),
		GetConfigDir(),
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
	}
	return nil
}

func GetHistoryDbPath() string {
	return filepath.Join(GetDataDir(), "energy-monitor-history.db")
}

func GetDataDir() string {
	if dir := os.Getenv("ENERGY_MONITOR_DATA_DIR"); dir != "" {
		return dir
	}
	return defaultDataDir
}

func GetConfigDir() string {
	if dir := os.Getenv("ENERGY_MONITOR_CONFIG_DIR"); dir != "" {
		return dir
	}
	return defaultConfigDir
}
