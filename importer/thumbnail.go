package importer

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	thumbWidth  = 400
	thumbHeight = 300
	//inputs above this pixel count get a cheap pre-scale before the
	//quality resize, to bound memory use
	maxPixels = 100000000

	thumbQuality       = 85
	placeholderQuality = 80
)

//Thumbnail renders the image into the 400x300 bounding box, preserving
//aspect ratio, flattening any alpha channel onto white, and encoding a
//baseline JPEG. It never fails: any decode or resize problem yields the
//placeholder instead.
func Thumbnail(data []byte) []byte {

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		zap.S().Warnf("thumbnail decode failed, using placeholder: %s", err.Error())
		return Placeholder()
	}

	bounds := img.Bounds()
	if bounds.Dx()*bounds.Dy() > maxPixels {
		zap.S().Infof("oversized image %dx%d, pre-scaling before thumbnail", bounds.Dx(), bounds.Dy())
		img = imaging.Resize(img, thumbWidth*4, 0, imaging.Box)
	}

	img = imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)

	//flatten transparency onto a white background
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.NRGBA{255, 255, 255, 255})
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		zap.S().Warnf("thumbnail encode failed, using placeholder: %s", err.Error())
		return Placeholder()
	}
	return buf.Bytes()
}

//Placeholder is a flat gray 400x300 JPEG substituted when thumbnail
//generation fails.
func Placeholder() []byte {
	img := imaging.New(thumbWidth, thumbHeight, color.NRGBA{200, 200, 200, 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(placeholderQuality)); err != nil {
		//encoding a fresh in-memory image cannot reasonably fail
		return nil
	}
	return buf.Bytes()
}
