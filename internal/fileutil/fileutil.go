// Package fileutil provides the file move primitives used by the cull
// workflow.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrTooManyCollisions is returned when a unique destination name cannot be
// found within a reasonable number of attempts.
var ErrTooManyCollisions = errors.New("too many files with similar names in target directory")

// maxNameAttempts bounds the `_N` suffix search.
const maxNameAttempts = 9999

// MoveFile moves src into destDir and returns the destination path chosen.
// If a file with the same name exists, it appends a counter to the stem
// (e.g. photo_1.jpg) before the extension.
func MoveFile(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	destName, err := UniqueName(filepath.Base(src), func(name string) bool {
		_, statErr := os.Stat(filepath.Join(destDir, name))
		return os.IsNotExist(statErr)
	})
	if err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, destName)
	if err := moveAcrossFS(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// UniqueName finds an unused filename by appending a numeric suffix to the
// stem. isAvailable reports whether a candidate can be used.
func UniqueName(filename string, isAvailable func(string) bool) (string, error) {
	if isAvailable(filename) {
		return filename, nil
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for counter := 1; counter <= maxNameAttempts; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, counter, ext)
		if isAvailable(candidate) {
			return candidate, nil
		}
	}
	return "", ErrTooManyCollisions
}

// moveAcrossFS renames src to dest, falling back to copy+delete when the
// rename crosses filesystems.
func moveAcrossFS(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := copyFile(src, dest); err != nil {
			return err
		}
		return os.Remove(src)
	}

	return err
}

func copyFile(src, dest string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		os.Remove(dest)
		return err
	}

	return destFile.Close()
}

// Restore moves a file back to its original location, creating parent
// directories as needed.
func Restore(src, originalPath string) error {
	if err := os.MkdirAll(filepath.Dir(originalPath), 0755); err != nil {
		return err
	}
	return moveAcrossFS(src, originalPath)
}
