//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/qdpx/internal/errors"
)

// openFileNoFollowRead opens a file for reading.
// On Windows, O_NOFOLLOW is not available. Creating symlinks needs elevated
// privileges there, and ValidatePath still rejects symlinks before we get here.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewIO(path, err)
	}
	return f, nil
}
