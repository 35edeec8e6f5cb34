//go:build !windows

package state

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFileAtomic writes data to a file atomically.
// On Unix systems, this uses renameio for atomic writes.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
