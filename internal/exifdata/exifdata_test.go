package exifdata

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestImage(t *testing.T, name string, encode func(*os.File, image.Image) error) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 32), uint8(y * 32), 0, 255})
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return path
}

func TestExtract_JpegWithoutExif(t *testing.T) {
	path := writeTestImage(t, "plain.jpg", func(f *os.File, img image.Image) error {
		return jpeg.Encode(f, img, nil)
	})

	data, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if data != nil {
		t.Errorf("jpeg without exif should yield nil data, got %+v", data)
	}
}

func TestExtract_PngHasNoExif(t *testing.T) {
	path := writeTestImage(t, "plain.png", func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	})

	data, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if data != nil {
		t.Errorf("png should yield nil data, got %+v", data)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope.jpg"))
	if err == nil {
		t.Error("unreadable file should be an error")
	}
}

func TestExtract_GarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.jpg")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xDE, 0xAD}, 64), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if data != nil {
		t.Errorf("garbage should yield nil data, got %+v", data)
	}
}
