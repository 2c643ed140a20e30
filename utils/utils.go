package utils

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultThreshold is the distance threshold used when none is given
const DefaultThreshold = 50.0

// NormalizePath returns the absolute, cleaned form of path
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// ResolvePath is NormalizePath with symlinks evaluated. A path that does not
// exist is returned in its normalized form.
func ResolvePath(path string) (string, error) {
	abs, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

// GetDefaultDatabasePath returns the default path for the run history database
func GetDefaultDatabasePath() string {
	return besideExecutable("imagematcher.db")
}

// GetDefaultConfigPath returns the default path for the YAML config file
func GetDefaultConfigPath() string {
	return besideExecutable("imagematcher.yaml")
}

func besideExecutable(name string) string {
	exePath, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exePath), name)
}

// ParseThreshold parses and validates a distance threshold in [0, 100]
func ParseThreshold(thresholdStr string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(thresholdStr), 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 || parsed > 100 {
		return DefaultThreshold, fmt.Errorf("invalid threshold value '%s', using default (%.0f)", thresholdStr, DefaultThreshold)
	}
	return parsed, nil
}
