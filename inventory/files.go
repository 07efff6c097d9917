package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TimestampFormat is the timestamp embedded in report and export file names
const TimestampFormat = "20060102_150405"

// uniquePath returns dir/base+ext, or dir/base_N+ext for the first N that
// does not exist yet, so earlier outputs are never overwritten
func uniquePath(dir, base, ext string) (string, error) {
	path := filepath.Join(dir, base+ext)
	for n := 1; ; n++ {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place, so an interrupted run leaves no partial file
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// writeUnique writes data to a fresh file named base+ext (or a numbered
// variant) in dir, creating dir if needed, and returns the path written
func writeUnique(dir, base, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path, err := uniquePath(dir, base, ext)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}
