package handler

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/disintegration/imaging"
	"github.com/kataras/iris/v12"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
	"github.com/streetlens/panorama/api/model"
)

type ImageHandler struct {
	Images   *database.ImageController
	MaxBytes int64
}

//Upload stores a multipart image. Thumbnail uploads are shrunk to 200x200
//before storage.
func (ih *ImageHandler) Upload(ctx iris.Context) {

	file, info, err := ctx.FormFile("file")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "file is required")
		return
	}
	defer file.Close()

	imageType := model.ImageType(ctx.FormValue("image_type"))
	switch imageType {
	case model.ImagePanorama, model.ImageThumbnail, model.ImagePreview:
	default:
		fail(ctx, encoding.CodeBadRequest, "unknown image type")
		return
	}

	mimeType := info.Header.Get("Content-Type")
	switch mimeType {
	case "image/jpeg", "image/jpg", "image/png":
	default:
		fail(ctx, encoding.CodeBadRequest, "only JPEG and PNG images are supported")
		return
	}

	if ih.MaxBytes > 0 && info.Size > ih.MaxBytes {
		fail(ctx, encoding.CodeBadRequest, "file too large")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	if imageType == model.ImageThumbnail {
		if src, decodeErr := imaging.Decode(bytes.NewReader(data)); decodeErr == nil {
			small := imaging.Fit(src, 200, 200, imaging.Lanczos)
			var buf bytes.Buffer
			if encodeErr := imaging.Encode(&buf, small, imaging.JPEG); encodeErr == nil {
				data = buf.Bytes()
				mimeType = "image/jpeg"
			}
		}
	}

	img := &model.StoredImage{
		Filename:  info.Filename,
		Data:      data,
		Size:      int64(len(data)),
		MimeType:  mimeType,
		Type:      imageType,
		CreatedBy: CurrentPrincipal(ctx).UserId,
	}
	if err := ih.Images.AddImage(ctx.Request().Context(), img); err != nil {
		dbFail(ctx, err, "")
		return
	}
	ok(ctx, encoding.ImageToInfo(img))
}

//GetImage serves the raw bytes with the stored MIME type. This endpoint uses
//true HTTP statuses so it can feed <img> tags directly.
func (ih *ImageHandler) GetImage(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("image_id")
	if err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		return
	}
	img, err := ih.Images.FindImageById(ctx.Request().Context(), id)
	if err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		return
	}
	ctx.ContentType(img.MimeType)
	ctx.Write(img.Data)
}

//GetImageBase64 returns the image as a data URL inside the envelope.
func (ih *ImageHandler) GetImageBase64(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("image_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid image id")
		return
	}
	img, err := ih.Images.FindImageById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "image not found")
		return
	}
	dataUrl := "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	ok(ctx, map[string]string{"data_url": dataUrl})
}

//GetImageInfo returns metadata without the payload.
func (ih *ImageHandler) GetImageInfo(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("image_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid image id")
		return
	}
	img, err := ih.Images.FindImageInfoById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "image not found")
		return
	}
	ok(ctx, encoding.ImageToInfo(img))
}
