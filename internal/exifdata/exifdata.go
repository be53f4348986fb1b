// Package exifdata reads descriptive metadata from image files. Extraction
// failures are expected for images without EXIF segments and are reported as
// an absent result, not an error.
package exifdata

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"photocull/internal/catalog"
)

// Extract reads EXIF metadata from the image at path. It returns (nil, nil)
// when the file has no parsable EXIF data; a non-nil error only indicates
// the file itself could not be opened.
func Extract(path string) (*catalog.ExifData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		return nil, nil
	}

	data := &catalog.ExifData{}

	if taken, err := x.DateTime(); err == nil {
		data.TakenAt = &taken
	}

	data.Camera = cameraName(x)

	if tag, err := x.Get(exif.LensModel); err == nil {
		if lens, err := tag.StringVal(); err == nil {
			data.Lens = lens
		}
	}

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			data.ISO = iso
		}
	}

	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			data.Aperture = float64(num) / float64(den)
		}
	}

	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			data.ShutterSpeed = fmt.Sprintf("%d/%d", num, den)
		}
	}

	if isEmpty(data) {
		return nil, nil
	}
	return data, nil
}

// cameraName joins the EXIF make and model into a single identifier.
func cameraName(x *exif.Exif) string {
	var maker, model string
	if tag, err := x.Get(exif.Make); err == nil {
		maker, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		model, _ = tag.StringVal()
	}

	switch {
	case maker != "" && model != "":
		return maker + " " + model
	case model != "":
		return model
	default:
		return maker
	}
}

func isEmpty(d *catalog.ExifData) bool {
	return d.TakenAt == nil && d.Camera == "" && d.Lens == "" &&
		d.ISO == 0 && d.Aperture == 0 && d.ShutterSpeed == ""
}
