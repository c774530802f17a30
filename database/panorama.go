package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/paulmach/orb"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

type PanoramaController struct {
	db DB
}

func NewPanoramaController(db DB) *PanoramaController {
	return &PanoramaController{db: db}
}

const panoramaColumns = `id, panorama_image_id, thumbnail_image_id, description, shoot_time,
	coalesce(longitude, 0), coalesce(latitude, 0), status, image_metadata, coalesce(created_by, 0), created_at, updated_at`

func scanPanorama(row pgx.Row) (*model.Panorama, error) {
	var p model.Panorama
	var lon, lat float64
	var status string
	var meta []byte
	err := row.Scan(&p.Id, &p.ImageId, &p.ThumbnailId, &p.Description, &p.ShootTime,
		&lon, &lat, &status, &meta, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Position = orb.Point{lon, lat}
	p.Status = model.PanoramaStatus(status)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Meta); err != nil {
			zap.S().Warnf("error decoding metadata for panorama %d: %s", p.Id, err.Error())
		}
	}
	return &p, nil
}

func scanPanoramas(rows pgx.Rows) ([]*model.Panorama, error) {
	var panoramas []*model.Panorama
	for rows.Next() {
		p, err := scanPanorama(rows)
		if err != nil {
			zap.S().Warnf("error scanning panorama row: %s", err.Error())
			continue
		}
		panoramas = append(panoramas, p)
	}
	return panoramas, rows.Err()
}

func (pc *PanoramaController) FindPanoramas(ctx context.Context) ([]*model.Panorama, error) {
	rows, err := pc.db.Query(ctx, "SELECT "+panoramaColumns+" FROM panoramas ORDER BY id")
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()
	return scanPanoramas(rows)
}

func (pc *PanoramaController) FindPanoramaById(ctx context.Context, id int64) (*model.Panorama, error) {
	row := pc.db.QueryRow(ctx, "SELECT "+panoramaColumns+" FROM panoramas WHERE id = $1", id)
	return scanPanorama(row)
}

//FindAvailablePanoramas returns panoramas not claimed by any location.
func (pc *PanoramaController) FindAvailablePanoramas(ctx context.Context) ([]*model.Panorama, error) {
	sql := "SELECT " + panoramaColumns + ` FROM panoramas
		WHERE id NOT IN (SELECT panorama_id FROM locations WHERE panorama_id IS NOT NULL) ORDER BY id`
	rows, err := pc.db.Query(ctx, sql)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()
	return scanPanoramas(rows)
}

//FindOwningLocation returns the location claiming the panorama, or pgx.ErrNoRows.
func (pc *PanoramaController) FindOwningLocation(ctx context.Context, panoramaId int64) (*model.Location, error) {
	return findOwningLocation(ctx, pc.db, panoramaId)
}

func findOwningLocation(ctx context.Context, q Queryer, panoramaId int64) (*model.Location, error) {
	row := q.QueryRow(ctx, "SELECT "+locationColumns+" FROM locations WHERE panorama_id = $1", panoramaId)
	return scanLocation(row)
}

func (pc *PanoramaController) AddPanorama(ctx context.Context, p *model.Panorama) error {
	return addPanorama(ctx, pc.db, p)
}

func addPanorama(ctx context.Context, q Queryer, p *model.Panorama) error {
	meta := pgtype.JSONB{}
	if err := meta.Set(p.Meta); err != nil {
		return err
	}
	sql := `INSERT INTO panoramas(panorama_image_id, thumbnail_image_id, description, shoot_time,
		longitude, latitude, status, image_metadata, created_by)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, sql, p.ImageId, p.ThumbnailId, p.Description, p.ShootTime,
		p.Position.X(), p.Position.Y(), string(p.Status), meta, p.CreatedBy).
		Scan(&p.Id, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		zap.S().Errorf("error adding panorama: %s", err.Error())
	}
	return err
}

//Review rewrites the status of a pending panorama. Re-invoking a review on an
//already reviewed item rewrites the same status; there is no transition out
//of published or rejected beyond that.
func (pc *PanoramaController) Review(ctx context.Context, id int64, status model.PanoramaStatus) error {
	tag, err := pc.db.Exec(ctx,
		"UPDATE panoramas SET status=$1, updated_at=now() WHERE id=$2", string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

//DeletePanorama removes the row with its dependents: the owning location (if
//any) is detached, preview associations and time machine entries referencing
//the panorama are deleted.
func (pc *PanoramaController) DeletePanorama(ctx context.Context, id int64) error {

	if _, err := pc.FindPanoramaById(ctx, id); err != nil {
		return err
	}

	tx, err := pc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE locations SET panorama_id=NULL, updated_at=now() WHERE panorama_id=$1", id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM time_machine_data WHERE panorama_id=$1", id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM panorama_preview_images WHERE panorama_id=$1", id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM panoramas WHERE id=$1", id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	zap.S().Infof("deleted panorama %d and dependents", id)
	return nil
}

//FindPreviews returns the panorama's preview associations in sort order.
func (pc *PanoramaController) FindPreviews(ctx context.Context, panoramaId int64) ([]*model.PreviewAssociation, error) {
	sql := `SELECT id, panorama_id, preview_image_id, sort_order, created_at
		FROM panorama_preview_images WHERE panorama_id = $1 ORDER BY sort_order`
	rows, err := pc.db.Query(ctx, sql, panoramaId)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var previews []*model.PreviewAssociation
	for rows.Next() {
		var pa model.PreviewAssociation
		if err := rows.Scan(&pa.Id, &pa.PanoramaId, &pa.ImageId, &pa.SortOrder, &pa.CreatedAt); err != nil {
			zap.S().Warnf("error scanning preview row: %s", err.Error())
			continue
		}
		previews = append(previews, &pa)
	}
	return previews, rows.Err()
}

//AddPreviews appends associations after the current highest sort order.
func (pc *PanoramaController) AddPreviews(ctx context.Context, panoramaId int64, imageIds []int64) (int, error) {

	if _, err := pc.FindPanoramaById(ctx, panoramaId); err != nil {
		return 0, err
	}
	var maxSort int
	err := pc.db.QueryRow(ctx,
		"SELECT coalesce(max(sort_order), 0) FROM panorama_preview_images WHERE panorama_id = $1", panoramaId).
		Scan(&maxSort)
	if err != nil {
		return 0, err
	}

	tx, err := pc.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := insertPreviews(ctx, tx, panoramaId, imageIds, maxSort+1); err != nil {
		return 0, err
	}
	return len(imageIds), tx.Commit(ctx)
}

//RemovePreviews deletes the given associations and resequences the remainder.
func (pc *PanoramaController) RemovePreviews(ctx context.Context, panoramaId int64, imageIds []int64) (int, error) {

	if _, err := pc.FindPanoramaById(ctx, panoramaId); err != nil {
		return 0, err
	}

	tx, err := pc.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	removed := 0
	for _, imageId := range imageIds {
		tag, err := tx.Exec(ctx,
			"DELETE FROM panorama_preview_images WHERE panorama_id=$1 AND preview_image_id=$2", panoramaId, imageId)
		if err != nil {
			return 0, err
		}
		removed += int(tag.RowsAffected())
	}

	//close the gaps left by the deletions
	sql := `UPDATE panorama_preview_images p SET sort_order = ranked.rn FROM (
		SELECT id, row_number() OVER (ORDER BY sort_order) AS rn
		FROM panorama_preview_images WHERE panorama_id = $1) ranked
		WHERE p.id = ranked.id`
	if _, err := tx.Exec(ctx, sql, panoramaId); err != nil {
		return 0, err
	}
	return removed, tx.Commit(ctx)
}

//ReorderPreviews rewrites sort orders to follow the given image id order.
func (pc *PanoramaController) ReorderPreviews(ctx context.Context, panoramaId int64, imageIds []int64) error {

	if _, err := pc.FindPanoramaById(ctx, panoramaId); err != nil {
		return err
	}

	tx, err := pc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, imageId := range imageIds {
		if _, err := tx.Exec(ctx,
			"UPDATE panorama_preview_images SET sort_order=$1 WHERE panorama_id=$2 AND preview_image_id=$3",
			i+1, panoramaId, imageId); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

//ReplacePreviews swaps the full association set in caller order.
func (pc *PanoramaController) ReplacePreviews(ctx context.Context, panoramaId int64, imageIds []int64) error {

	tx, err := pc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := replacePreviews(ctx, tx, panoramaId, imageIds); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
