package importer

import (
	"testing"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDmsToDegrees(t *testing.T) {
	assert.InDelta(t, 114.5, DmsToDegrees(114, 30, 0), 1e-9)
	assert.InDelta(t, 23.51, DmsToDegrees(23, 30, 36), 1e-9)
	assert.InDelta(t, 0, DmsToDegrees(0, 0, 0), 1e-9)
}

func TestSignedDegrees(t *testing.T) {
	assert.InDelta(t, 23.51, signedDegrees(23, 30, 36, "N", "S"), 1e-9)
	assert.InDelta(t, -23.51, signedDegrees(23, 30, 36, "S", "S"), 1e-9)
	assert.InDelta(t, 114.5, signedDegrees(114, 30, 0, "E", "W"), 1e-9)
	assert.InDelta(t, -114.5, signedDegrees(114, 30, 0, "W", "W"), 1e-9)
	//a missing ref tag leaves the value positive
	assert.InDelta(t, 23.51, signedDegrees(23, 30, 36, "", "S"), 1e-9)
}

func tagLookup(tags map[exif.FieldName]string) func(exif.FieldName) (string, bool) {
	return func(field exif.FieldName) (string, bool) {
		raw, ok := tags[field]
		return raw, ok
	}
}

func TestPickCaptureTime(t *testing.T) {

	//DateTimeOriginal outranks the other tags
	got, raw := pickCaptureTime(tagLookup(map[exif.FieldName]string{
		exif.DateTimeOriginal: "2023:05:12 14:00:00",
		exif.DateTime:         "2024:01:01 00:00:00",
	}))
	require.NotNil(t, got)
	assert.Equal(t, "2023:05:12 14:00:00", raw)
	assert.True(t, got.Equal(time.Date(2023, 5, 12, 14, 0, 0, 0, time.Local)))

	//a malformed higher-priority tag falls through to the next one
	got, raw = pickCaptureTime(tagLookup(map[exif.FieldName]string{
		exif.DateTimeOriginal:  "not a timestamp",
		exif.DateTimeDigitized: "2023:05:12 15:30:00",
	}))
	require.NotNil(t, got)
	assert.Equal(t, "2023:05:12 15:30:00", raw)

	//DateTime alone is still accepted
	got, _ = pickCaptureTime(tagLookup(map[exif.FieldName]string{
		exif.DateTime: "2022:12:31 23:59:59",
	}))
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2022, 12, 31, 23, 59, 59, 0, time.Local)))

	got, raw = pickCaptureTime(tagLookup(nil))
	assert.Nil(t, got)
	assert.Equal(t, "", raw)
}

func TestExtractMetaWithoutExif(t *testing.T) {

	position, shootTime, meta := ExtractMeta([]byte("plain bytes, no exif"))

	assert.Nil(t, position)
	assert.Nil(t, shootTime)
	assert.False(t, meta.HasExif)
	assert.False(t, meta.HasGps)
	assert.Equal(t, "JPEG", meta.Format)
}
