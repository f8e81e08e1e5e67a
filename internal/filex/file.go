// Package filex has small filesystem helpers for the command line.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir, owner-only, if it does not exist and returns its
// absolute path. Relative paths resolve against the working directory.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WriteKeyFile writes a PEM file. Private material is owner-only.
func WriteKeyFile(path string, data []byte, private bool) error {
	perm := os.FileMode(0o644)
	if private {
		perm = 0o600
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
