package media

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata is what the intake log records about a photo. None of it is stored.
type Metadata struct {
	CapturedAt  time.Time
	HasLocation bool
	CameraModel string
}

// Inspect reads EXIF from a JPEG. ok is false when the file carries no EXIF block.
func Inspect(f File) (Metadata, bool) {
	x, err := exif.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return Metadata{}, false
	}

	var md Metadata
	if t, err := x.DateTime(); err == nil {
		md.CapturedAt = t
	}
	if _, _, err := x.LatLong(); err == nil {
		md.HasLocation = true
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			md.CameraModel = model
		}
	}
	return md, true
}
