package database

import (
	"context"

	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

type ImageController struct {
	db DB
}

func NewImageController(db DB) *ImageController {
	return &ImageController{db: db}
}

//AddImage stores an image row and fills in its id.
func (ic *ImageController) AddImage(ctx context.Context, img *model.StoredImage) error {
	return addImage(ctx, ic.db, img)
}

func addImage(ctx context.Context, q Queryer, img *model.StoredImage) error {
	sql := `INSERT INTO image_storage(filename, file_data, file_size, mime_type, image_type, created_by)
		VALUES($1,$2,$3,$4,$5,$6) RETURNING id, created_at`
	err := q.QueryRow(ctx, sql, img.Filename, img.Data, img.Size, img.MimeType, string(img.Type), img.CreatedBy).
		Scan(&img.Id, &img.CreatedAt)
	if err != nil {
		zap.S().Errorf("error adding image %s: %s", img.Filename, err.Error())
	}
	return err
}

//FindImageById returns the full row including the binary payload.
func (ic *ImageController) FindImageById(ctx context.Context, id int64) (*model.StoredImage, error) {
	sql := `SELECT id, filename, file_data, file_size, mime_type, image_type, coalesce(created_by, 0), created_at
		FROM image_storage WHERE id = $1`
	var img model.StoredImage
	var typ string
	err := ic.db.QueryRow(ctx, sql, id).
		Scan(&img.Id, &img.Filename, &img.Data, &img.Size, &img.MimeType, &typ, &img.CreatedBy, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	img.Type = model.ImageType(typ)
	return &img, nil
}

//FindImageInfoById returns metadata without loading the payload.
func (ic *ImageController) FindImageInfoById(ctx context.Context, id int64) (*model.StoredImage, error) {
	sql := `SELECT id, filename, file_size, mime_type, image_type, coalesce(created_by, 0), created_at
		FROM image_storage WHERE id = $1`
	var img model.StoredImage
	var typ string
	err := ic.db.QueryRow(ctx, sql, id).
		Scan(&img.Id, &img.Filename, &img.Size, &img.MimeType, &typ, &img.CreatedBy, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	img.Type = model.ImageType(typ)
	return &img, nil
}

//ImageExists is used when validating preview id lists.
func (ic *ImageController) ImageExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := ic.db.QueryRow(ctx, "SELECT count(id) FROM image_storage WHERE id = $1", id).Scan(&n)
	return n > 0, err
}
