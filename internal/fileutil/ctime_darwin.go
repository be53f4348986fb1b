//go:build darwin

package fileutil

import (
	"os"
	"syscall"
	"time"
)

// CreationTime returns the file's birth time.
func CreationTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return time.Unix(0, 0)
}
