package cmd

import (
	"os"
	"path/filepath"
)

// findEnvPath walks up from startDir looking for a .env file, falling back
// to startDir/.env so callers always get a candidate path to try loading.
func findEnvPath(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(startDir, ".env")
}
