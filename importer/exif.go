package importer

import (
	"bytes"
	"time"

	"github.com/paulmach/orb"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/streetlens/panorama/api/model"
)

const exifTimeLayout = "2006:01:02 15:04:05"

//capture time tags in priority order
var timeFields = []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime}

//ExtractMeta pulls position, capture time and camera fields from the image
//bytes. Either return value may be nil when the data carries no usable EXIF;
//the returned meta always reflects what was found.
func ExtractMeta(data []byte) (*orb.Point, *time.Time, model.CaptureMeta) {

	meta := model.CaptureMeta{Format: "JPEG"}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, meta
	}
	meta.HasExif = true

	shootTime, rawShootTime := pickCaptureTime(func(field exif.FieldName) (string, bool) {
		tag, err := x.Get(field)
		if err != nil {
			return "", false
		}
		raw, err := tag.StringVal()
		if err != nil {
			return "", false
		}
		return raw, true
	})
	meta.ShootTimeExif = rawShootTime

	var position *orb.Point
	lat, latOk := dmsTag(x, exif.GPSLatitude, exif.GPSLatitudeRef, "S")
	lon, lonOk := dmsTag(x, exif.GPSLongitude, exif.GPSLongitudeRef, "W")
	if latOk && lonOk {
		meta.HasGps = true
		position = &orb.Point{lon, lat}
	}

	meta.ExposureTime = tagString(x, exif.ExposureTime)
	meta.FNumber = tagString(x, exif.FNumber)
	meta.Iso = tagString(x, exif.ISOSpeedRatings)
	meta.FocalLength = tagString(x, exif.FocalLength)
	meta.CameraMake = tagString(x, exif.Make)
	meta.CameraModel = tagString(x, exif.Model)

	return position, shootTime, meta
}

//pickCaptureTime walks the capture-time tags in priority order and returns
//the first value that parses, along with its raw tag string. Unreadable or
//malformed tags fall through to the next candidate.
func pickCaptureTime(lookup func(exif.FieldName) (string, bool)) (*time.Time, string) {
	for _, field := range timeFields {
		raw, ok := lookup(field)
		if !ok {
			continue
		}
		t, err := time.ParseInLocation(exifTimeLayout, raw, time.Local)
		if err != nil {
			continue
		}
		return &t, raw
	}
	return nil, ""
}

//dmsTag decodes a degree/minute/second rational triple, applying the
//hemisphere sign when the ref tag matches negativeRef.
func dmsTag(x *exif.Exif, field, refField exif.FieldName, negativeRef string) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil || tag.Count < 3 {
		return 0, false
	}
	parts := make([]float64, 3)
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		if s, err := refTag.StringVal(); err == nil {
			ref = s
		}
	}
	return signedDegrees(parts[0], parts[1], parts[2], ref, negativeRef), true
}

//signedDegrees converts a DMS triple to decimal degrees, negated for the
//southern and western hemispheres.
func signedDegrees(degrees, minutes, seconds float64, ref, negativeRef string) float64 {
	value := DmsToDegrees(degrees, minutes, seconds)
	if ref == negativeRef {
		value = -value
	}
	return value
}

//DmsToDegrees converts a degree/minute/second triple to decimal degrees.
func DmsToDegrees(degrees, minutes, seconds float64) float64 {
	return degrees + minutes/60 + seconds/3600
}

func tagString(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			return s
		}
	}
	return tag.String()
}
