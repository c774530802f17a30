package importer

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, width, height int, c color.NRGBA, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(width, height, c), format))
	return buf.Bytes()
}

func TestThumbnailFitsBoundingBox(t *testing.T) {

	//wide input: width binds, height scales with it
	data := encode(t, 1000, 500, color.NRGBA{255, 0, 0, 255}, imaging.JPEG)
	thumb, err := imaging.Decode(bytes.NewReader(Thumbnail(data)))

	require.NoError(t, err)
	assert.Equal(t, 400, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())
}

func TestThumbnailTallInput(t *testing.T) {

	data := encode(t, 300, 600, color.NRGBA{0, 255, 0, 255}, imaging.JPEG)
	thumb, err := imaging.Decode(bytes.NewReader(Thumbnail(data)))

	require.NoError(t, err)
	assert.Equal(t, 150, thumb.Bounds().Dx())
	assert.Equal(t, 300, thumb.Bounds().Dy())
}

//Undecodable input never fails the import; it yields the gray placeholder.
func TestThumbnailCorruptInput(t *testing.T) {

	thumb, err := imaging.Decode(bytes.NewReader(Thumbnail([]byte("not an image"))))

	require.NoError(t, err)
	assert.Equal(t, 400, thumb.Bounds().Dx())
	assert.Equal(t, 300, thumb.Bounds().Dy())
}

func TestThumbnailFlattensTransparency(t *testing.T) {

	data := encode(t, 100, 100, color.NRGBA{0, 0, 0, 0}, imaging.PNG)
	thumb, err := imaging.Decode(bytes.NewReader(Thumbnail(data)))

	require.NoError(t, err)
	r, g, b, _ := thumb.At(50, 50).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestPlaceholder(t *testing.T) {

	img, err := imaging.Decode(bytes.NewReader(Placeholder()))

	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}
