package tgutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EnsureDir creates the given directories when missing.
func EnsureDir(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", p, err)
		}
	}
	return nil
}

// TempFilePath returns a fresh random file name inside dir.
func TempFilePath(dir, ext string) string {
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, fmt.Sprintf("temp_%s%s", uuid.NewString(), ext))
}

// CleanupDir removes every regular file inside dir, keeping the dir itself.
func CleanupDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warnf("[CLEANUP] failed to read temp dir %s", dir)
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logrus.WithError(err).Warnf("[CLEANUP] failed to remove %s", path)
			continue
		}
		logrus.Debugf("[CLEANUP] removed temp file %s", path)
	}
}

// RemoveFiles deletes the given paths, ignoring ones that are already gone.
// Used to sweep photo paths recorded in the review store.
func RemoveFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).Warnf("[CLEANUP] failed to remove %s", p)
		}
	}
}
