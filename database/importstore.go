package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/streetlens/panorama/api/importer"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

//ImportStore is the persistence side of the import pipeline. Each item is one
//transaction: the full image, its thumbnail, the resolved or created location,
//the panorama and its preview copies commit together or not at all.
type ImportStore struct {
	db DB
}

func NewImportStore(db DB) *ImportStore {
	return &ImportStore{db: db}
}

func (s *ImportStore) HasPanoramas(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT count(id) FROM panoramas").Scan(&n)
	return n > 0, err
}

func (s *ImportStore) ImportItem(ctx context.Context, item *importer.Item, tolerance float64) (*importer.Result, error) {

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	full := &model.StoredImage{
		Filename:  item.Filename,
		Data:      item.Data,
		Size:      item.Size,
		MimeType:  item.MimeType,
		Type:      model.ImagePanorama,
		CreatedBy: item.CreatedBy,
	}
	if err := addImage(ctx, tx, full); err != nil {
		return nil, err
	}

	thumb := &model.StoredImage{
		Filename:  "thumb_" + item.Filename,
		Data:      item.Thumbnail,
		Size:      int64(len(item.Thumbnail)),
		MimeType:  "image/jpeg",
		Type:      model.ImageThumbnail,
		CreatedBy: item.CreatedBy,
	}
	if err := addImage(ctx, tx, thumb); err != nil {
		return nil, err
	}

	result := &importer.Result{}

	location, err := findLocationNear(ctx, tx, item.Position, tolerance)
	if err == pgx.ErrNoRows {
		location = &model.Location{
			Name:        item.LocationName,
			Position:    item.Position,
			Rating:      item.LocationRating,
			Category:    "panorama site",
			Description: item.LocationDescription,
		}
		sql := `INSERT INTO locations(name, longitude, latitude, rating, category, description, address, panorama_id)
			VALUES($1,$2,$3,$4,$5,$6,$7,NULL) RETURNING id, created_at, updated_at`
		err = tx.QueryRow(ctx, sql, location.Name, location.Position.X(), location.Position.Y(),
			location.Rating, location.Category, location.Description, location.Address).
			Scan(&location.Id, &location.CreatedAt, &location.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result.LocationCreated = true
	} else if err != nil {
		return nil, err
	}

	panorama := &model.Panorama{
		ImageId:     full.Id,
		ThumbnailId: thumb.Id,
		Description: item.Description,
		ShootTime:   item.ShootTime,
		Position:    item.Position,
		Status:      model.PanoramaPublished,
		Meta:        item.Meta,
		CreatedBy:   item.CreatedBy,
	}
	if err := addPanorama(ctx, tx, panorama); err != nil {
		return nil, err
	}

	//claim the location only when it is still free; a second panorama near
	//the same point shares the location without displacing the first
	if location.PanoramaId == nil {
		if _, err := tx.Exec(ctx,
			"UPDATE locations SET panorama_id=$1, updated_at=now() WHERE id=$2 AND panorama_id IS NULL",
			panorama.Id, location.Id); err != nil {
			return nil, err
		}
	}

	for i, pf := range item.Previews {
		preview := &model.StoredImage{
			Filename:  pf.Filename,
			Data:      pf.Data,
			Size:      int64(len(pf.Data)),
			MimeType:  pf.MimeType,
			Type:      model.ImagePreview,
			CreatedBy: item.CreatedBy,
		}
		if err := addImage(ctx, tx, preview); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO panorama_preview_images(panorama_id, preview_image_id, sort_order) VALUES($1,$2,$3)",
			panorama.Id, preview.Id, i); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	result.PanoramaId = panorama.Id
	result.LocationId = location.Id
	return result, nil
}

//AddTimeMachineSamples seeds snapshot entries for the most recently imported
//panoramas that own a location. Entries that already exist are left alone.
func (s *ImportStore) AddTimeMachineSamples(ctx context.Context, limit int) (int, error) {

	rows, err := s.db.Query(ctx,
		"SELECT "+panoramaColumns+" FROM panoramas ORDER BY id DESC LIMIT $1", limit)
	if err != nil {
		return 0, err
	}
	panoramas, err := scanPanoramas(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	created := 0
	for i, p := range panoramas {
		location, err := findOwningLocation(ctx, s.db, p.Id)
		if err == pgx.ErrNoRows {
			continue
		}
		if err != nil {
			return created, err
		}

		entryId := fmt.Sprintf("TM-%d-001", p.Id)
		var n int
		if err := s.db.QueryRow(ctx,
			"SELECT count(id) FROM time_machine_data WHERE id = $1", entryId).Scan(&n); err != nil {
			return created, err
		}
		if n > 0 {
			continue
		}

		address := location.Address
		if address == "" {
			address = location.Name
		}
		entry := &model.TimeMachineEntry{
			Id:          entryId,
			LocationId:  location.Id,
			PanoramaId:  p.Id,
			Year:        p.ShootTime.Year(),
			Month:       int(p.ShootTime.Month()),
			Label:       fmt.Sprintf("%s historical view %d", location.Name, i+1),
			Description: fmt.Sprintf("historical panorama data for %s", location.Name),
			Address:     address,
			ImageIds:    []int64{},
		}
		if err := addTimeMachineEntry(ctx, s.db, entry); err != nil {
			return created, err
		}
		created++
	}
	zap.S().Infof("created %d time machine sample entries", created)
	return created, nil
}
