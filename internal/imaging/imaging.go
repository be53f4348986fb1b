package imaging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError reports an image that could not be opened or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedTypeError reports a file whose extension is not on the
// supported-format list.
type UnsupportedTypeError struct {
	Path string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", filepath.Ext(e.Path))
}

// contentHashBlockSize is the read block used when streaming file bytes
// through the digest.
const contentHashBlockSize = 64 * 1024

// supportedExtensions lists the image formats the catalog accepts. RAW
// formats are discovered and content-hashed but may fail perceptual hashing;
// that failure is tolerated by callers.
var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
	".heic": true, ".cr2": true, ".cr3": true, ".nef": true,
	".arw": true, ".dng": true, ".raw": true,
}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// SupportedExtensions returns the default allow-list of extensions,
// without the leading dot.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	return exts
}

// ContentHash computes the SHA-256 digest of the full file content,
// streaming in fixed-size blocks. The same bytes always yield the same
// digest.
func ContentHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	buf := make([]byte, contentHashBlockSize)
	if _, err := io.CopyBuffer(h, file, buf); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// PerceptualHash decodes the image at path and computes its 64-bit
// perception hash. Visually similar images yield hashes with small Hamming
// distance.
func PerceptualHash(path string) (uint64, error) {
	img, err := decode(path)
	if err != nil {
		return 0, err
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute hash: %w", err)
	}
	return hash.GetHash(), nil
}

// Dimensions returns the pixel width and height of the image at path.
func Dimensions(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, &DecodeError{Path: path, Err: err}
	}
	return cfg.Width, cfg.Height, nil
}

// Decode opens and decodes the image at path.
func Decode(path string) (image.Image, error) {
	return decode(path)
}

func decode(path string) (image.Image, error) {
	if !IsSupported(path) {
		return nil, &UnsupportedTypeError{Path: path}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// IsDecodeFailure reports whether err originated from an undecodable image
// rather than an I/O problem.
func IsDecodeFailure(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// HammingDistance calculates the number of differing bits between two
// 64-bit fingerprints.
func HammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
