//go:build !windows

package settings

import (
	"github.com/google/renameio/v2"
)

// replaceFile writes data to a temp file next to path, fsyncs it and renames
// it over path, so a crash never leaves a half-written settings file.
func replaceFile(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}
