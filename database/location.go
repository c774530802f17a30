package database

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

//Sentinel errors for validation/conflict conditions surfaced as 400-style
//envelopes by the handlers.
var (
	ErrNameTaken       = errors.New("location name already exists")
	ErrLocationClaimed = errors.New("location already has a panorama")
	ErrPanoramaClaimed = errors.New("panorama already used by another location")
	ErrNothingToDetach = errors.New("location has no panorama attached")
)

type LocationController struct {
	db DB
}

func NewLocationController(db DB) *LocationController {
	return &LocationController{db: db}
}

const locationColumns = `id, name, longitude, latitude, rating, category, description, address, panorama_id, created_at, updated_at`

func scanLocation(row pgx.Row) (*model.Location, error) {
	var l model.Location
	var lon, lat float64
	err := row.Scan(&l.Id, &l.Name, &lon, &lat, &l.Rating, &l.Category, &l.Description, &l.Address,
		&l.PanoramaId, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Position = orb.Point{lon, lat}
	return &l, nil
}

func scanLocations(rows pgx.Rows) ([]*model.Location, error) {
	var locations []*model.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			zap.S().Warnf("error scanning location row: %s", err.Error())
			continue
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (lc *LocationController) FindLocations(ctx context.Context) ([]*model.Location, error) {
	rows, err := lc.db.Query(ctx, "SELECT "+locationColumns+" FROM locations ORDER BY id")
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()
	return scanLocations(rows)
}

func (lc *LocationController) FindLocationById(ctx context.Context, id int64) (*model.Location, error) {
	row := lc.db.QueryRow(ctx, "SELECT "+locationColumns+" FROM locations WHERE id = $1", id)
	return scanLocation(row)
}

//FindLocationNear returns the first location within tolerance of point on
//both axes, or pgx.ErrNoRows. Matches the import pipeline's dedup rule.
func (lc *LocationController) FindLocationNear(ctx context.Context, point orb.Point, tolerance float64) (*model.Location, error) {
	return findLocationNear(ctx, lc.db, point, tolerance)
}

func findLocationNear(ctx context.Context, q Queryer, point orb.Point, tolerance float64) (*model.Location, error) {
	sql := "SELECT " + locationColumns + ` FROM locations
		WHERE abs(longitude - $1) < $3 AND abs(latitude - $2) < $3 ORDER BY id LIMIT 1`
	row := q.QueryRow(ctx, sql, point.X(), point.Y(), tolerance)
	return scanLocation(row)
}

//nameTaken checks case-insensitive name uniqueness, optionally excluding one id.
func nameTaken(ctx context.Context, q Queryer, name string, excludeId int64) (bool, error) {
	var n int
	err := q.QueryRow(ctx,
		"SELECT count(id) FROM locations WHERE lower(name) = lower($1) AND id <> $2", name, excludeId).Scan(&n)
	return n > 0, err
}

//panoramaClaimed checks whether any location other than excludeId references the panorama.
func panoramaClaimed(ctx context.Context, q Queryer, panoramaId int64, excludeId int64) (bool, error) {
	var n int
	err := q.QueryRow(ctx,
		"SELECT count(id) FROM locations WHERE panorama_id = $1 AND id <> $2", panoramaId, excludeId).Scan(&n)
	return n > 0, err
}

//AddLocation creates a location after checking name uniqueness and, when a
//panorama is supplied, the one-location-per-panorama invariant.
func (lc *LocationController) AddLocation(ctx context.Context, l *model.Location) error {

	taken, err := nameTaken(ctx, lc.db, l.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrNameTaken
	}
	if l.PanoramaId != nil {
		claimed, err := panoramaClaimed(ctx, lc.db, *l.PanoramaId, 0)
		if err != nil {
			return err
		}
		if claimed {
			return ErrPanoramaClaimed
		}
	}

	sql := `INSERT INTO locations(name, longitude, latitude, rating, category, description, address, panorama_id)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`
	err = lc.db.QueryRow(ctx, sql, l.Name, l.Position.X(), l.Position.Y(), l.Rating, l.Category,
		l.Description, l.Address, l.PanoramaId).Scan(&l.Id, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		zap.S().Errorf("error adding location %s: %s", l.Name, err.Error())
	}
	return err
}

//UpdateLocation rewrites a location. A changed panorama reference follows the
//same uniqueness check as attach; previews for the new panorama are replaced
//wholesale in the order given.
func (lc *LocationController) UpdateLocation(ctx context.Context, l *model.Location, previewImageIds []int64) error {

	taken, err := nameTaken(ctx, lc.db, l.Name, l.Id)
	if err != nil {
		return err
	}
	if taken {
		return ErrNameTaken
	}
	if l.PanoramaId != nil {
		claimed, err := panoramaClaimed(ctx, lc.db, *l.PanoramaId, l.Id)
		if err != nil {
			return err
		}
		if claimed {
			return ErrPanoramaClaimed
		}
	}

	tx, err := lc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sql := `UPDATE locations SET name=$1, longitude=$2, latitude=$3, rating=$4, category=$5,
		description=$6, address=$7, panorama_id=$8, updated_at=now() WHERE id=$9`
	if _, err := tx.Exec(ctx, sql, l.Name, l.Position.X(), l.Position.Y(), l.Rating, l.Category,
		l.Description, l.Address, l.PanoramaId, l.Id); err != nil {
		return err
	}

	if l.PanoramaId != nil && previewImageIds != nil {
		if err := replacePreviews(ctx, tx, *l.PanoramaId, previewImageIds); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

//AttachPanorama claims a panorama for a location. Fails if either side is
//already claimed; on failure nothing is mutated.
func (lc *LocationController) AttachPanorama(ctx context.Context, locationId, panoramaId int64, previewImageIds []int64) error {

	location, err := lc.FindLocationById(ctx, locationId)
	if err != nil {
		return err
	}
	if location.PanoramaId != nil {
		return ErrLocationClaimed
	}
	claimed, err := panoramaClaimed(ctx, lc.db, panoramaId, locationId)
	if err != nil {
		return err
	}
	if claimed {
		return ErrPanoramaClaimed
	}

	tx, err := lc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE locations SET panorama_id=$1, updated_at=now() WHERE id=$2", panoramaId, locationId); err != nil {
		return err
	}
	if len(previewImageIds) > 0 {
		if err := insertPreviews(ctx, tx, panoramaId, previewImageIds, 0); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

//DetachPanorama clears the reference and removes the panorama's preview
//associations; previews are location-scoped presentation data here.
func (lc *LocationController) DetachPanorama(ctx context.Context, locationId int64) (int64, error) {

	location, err := lc.FindLocationById(ctx, locationId)
	if err != nil {
		return 0, err
	}
	if location.PanoramaId == nil {
		return 0, ErrNothingToDetach
	}
	panoramaId := *location.PanoramaId

	tx, err := lc.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE locations SET panorama_id=NULL, updated_at=now() WHERE id=$1", locationId); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM panorama_preview_images WHERE panorama_id=$1", panoramaId); err != nil {
		return 0, err
	}
	return panoramaId, tx.Commit(ctx)
}

//DeleteLocation removes the row. An owned panorama is detached, never
//deleted; its now-orphaned preview associations go with the location.
func (lc *LocationController) DeleteLocation(ctx context.Context, locationId int64) (*model.Location, error) {

	location, err := lc.FindLocationById(ctx, locationId)
	if err != nil {
		return nil, err
	}

	tx, err := lc.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if location.PanoramaId != nil {
		if _, err := tx.Exec(ctx,
			"DELETE FROM panorama_preview_images WHERE panorama_id=$1", *location.PanoramaId); err != nil {
			return nil, err
		}
	}
	if _, err := tx.Exec(ctx, "DELETE FROM locations WHERE id=$1", locationId); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	zap.S().Infof("deleted location %d (%s)", location.Id, location.Name)
	return location, nil
}

func insertPreviews(ctx context.Context, q Queryer, panoramaId int64, imageIds []int64, startOrder int) error {
	sql := "INSERT INTO panorama_preview_images(panorama_id, preview_image_id, sort_order) VALUES($1,$2,$3)"
	for i, imageId := range imageIds {
		if _, err := q.Exec(ctx, sql, panoramaId, imageId, startOrder+i); err != nil {
			return err
		}
	}
	return nil
}

//replacePreviews deletes all existing associations and re-inserts in caller order.
func replacePreviews(ctx context.Context, q Queryer, panoramaId int64, imageIds []int64) error {
	if _, err := q.Exec(ctx, "DELETE FROM panorama_preview_images WHERE panorama_id=$1", panoramaId); err != nil {
		return err
	}
	return insertPreviews(ctx, q, panoramaId, imageIds, 0)
}
