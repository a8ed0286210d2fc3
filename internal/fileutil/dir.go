package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirMode is the mode used for directories created by this package.
const DirMode os.FileMode = 0o755

// EnsureDir creates path and any missing parents. An existing directory is
// not an error; an existing non-directory is.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, DirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// EnsureDirForFile creates the parent directory of filePath.
func EnsureDirForFile(filePath string) error {
	if err := EnsureDir(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", filePath, err)
	}
	return nil
}

// DefaultLockDir returns the directory for lock files when none is
// configured: <user cache dir>/lockstep/locks, or the temp dir when the user
// cache dir cannot be determined.
func DefaultLockDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "lockstep", "locks")
}
