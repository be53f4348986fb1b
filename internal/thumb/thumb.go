// Package thumb renders and caches preview thumbnails for catalog assets.
package thumb

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"photocull/internal/imaging"
)

const (
	// boundingSize is the maximum edge length of a rendered thumbnail.
	boundingSize = 512
	jpegQuality  = 85
)

// Renderer generates thumbnails under a per-collection cache directory.
type Renderer struct {
	cacheDir string
}

// NewRenderer creates a Renderer storing thumbnails under cacheDir.
func NewRenderer(cacheDir string) *Renderer {
	return &Renderer{cacheDir: cacheDir}
}

// CacheDir returns the thumbnail cache directory.
func (r *Renderer) CacheDir() string { return r.cacheDir }

// Path returns the deterministic thumbnail location for an asset id.
func (r *Renderer) Path(assetID string) string {
	return filepath.Join(r.cacheDir, assetID+".jpg")
}

// UpToDate reports whether a thumbnail already exists for the source and is
// at least as new as the source file.
func (r *Renderer) UpToDate(thumbPath, sourcePath string) bool {
	thumbInfo, err := os.Stat(thumbPath)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	return !thumbInfo.ModTime().Before(srcInfo.ModTime())
}

// Render decodes the source image, resizes it preserving aspect ratio to fit
// the bounding dimension, and writes it as JPEG to thumbPath. An existing
// up-to-date thumbnail is reused without re-rendering.
func (r *Renderer) Render(sourcePath, thumbPath string) error {
	if r.UpToDate(thumbPath, sourcePath) {
		return nil
	}

	img, err := imaging.Decode(sourcePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(thumbPath), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	small := resize.Thumbnail(boundingSize, boundingSize, img, resize.Lanczos3)

	out, err := os.Create(thumbPath)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail file: %w", err)
	}

	if err := jpeg.Encode(out, small, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		os.Remove(thumbPath)
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Close()
}
