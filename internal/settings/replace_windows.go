//go:build windows

package settings

import (
	"os"
	"path/filepath"
)

// replaceFile writes data to a temp file in the same directory, syncs it and
// renames it over path. renameio does not support Windows; os.Rename uses
// MoveFileEx with MOVEFILE_REPLACE_EXISTING there.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
