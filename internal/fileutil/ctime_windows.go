//go:build windows

package fileutil

import (
	"os"
	"syscall"
	"time"
)

// CreationTime returns the file's creation time.
func CreationTime(info os.FileInfo) time.Time {
	if attrs, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, attrs.CreationTime.Nanoseconds())
	}
	return time.Unix(0, 0)
}
