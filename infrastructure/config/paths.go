package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// DefaultPaths lists where an inventory is looked up when --config is not given.
func DefaultPaths() []string {
	paths := []string{filepath.Join(".", "swctl.yaml")}

	switch runtime.GOOS {
	case "windows":
		if appDataDir := os.Getenv("APPDATA"); appDataDir != "" {
			paths = append(paths, filepath.Join(appDataDir, "swctl", "config.yaml"))
		}
		if programDataDir := os.Getenv("ProgramData"); programDataDir != "" {
			paths = append(paths, filepath.Join(programDataDir, "swctl", "config.yaml"))
		}
	default:
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			paths = append(paths, filepath.Join(userConfigDir, "swctl", "config.yaml"))
		}
		paths = append(paths, "/etc/swctl/config.yaml")
	}
	return paths
}

// Find returns the first existing file among paths.
func Find(fs afero.Fs, paths []string) (string, bool) {
	for _, path := range paths {
		if info, err := fs.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
