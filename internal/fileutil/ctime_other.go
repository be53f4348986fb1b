//go:build !darwin && !windows

package fileutil

import (
	"os"
	"time"
)

// CreationTime falls back to the Unix epoch on platforms that do not expose
// a file birth time.
func CreationTime(_ os.FileInfo) time.Time {
	return time.Unix(0, 0)
}
