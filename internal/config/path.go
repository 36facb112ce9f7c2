package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandHome resolves a leading "~" or "~/" in a config path against the
// user's home directory. Other paths are returned unchanged.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
