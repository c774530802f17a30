package database

import (
	"context"
	"encoding/json"

	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

type TimeMachineController struct {
	db DB
}

func NewTimeMachineController(db DB) *TimeMachineController {
	return &TimeMachineController{db: db}
}

func (tc *TimeMachineController) AddEntry(ctx context.Context, e *model.TimeMachineEntry) error {
	return addTimeMachineEntry(ctx, tc.db, e)
}

func addTimeMachineEntry(ctx context.Context, q Queryer, e *model.TimeMachineEntry) error {
	imageIds, err := json.Marshal(attachmentsOrEmpty(e.ImageIds))
	if err != nil {
		return err
	}
	sql := `INSERT INTO time_machine_data(id, location_id, panorama_id, year, month, label, description, address, image_ids)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at`
	err = q.QueryRow(ctx, sql, e.Id, e.LocationId, e.PanoramaId, e.Year, e.Month,
		e.Label, e.Description, e.Address, imageIds).Scan(&e.CreatedAt)
	if err != nil {
		zap.S().Errorf("error adding time machine entry %s: %s", e.Id, err.Error())
	}
	return err
}

//FindEntriesByLocation returns a location's snapshots, newest label first.
func (tc *TimeMachineController) FindEntriesByLocation(ctx context.Context, locationId int64) ([]*model.TimeMachineEntry, error) {
	sql := `SELECT id, location_id, panorama_id, year, month, label, description, address, image_ids, created_at
		FROM time_machine_data WHERE location_id = $1 ORDER BY year DESC, month DESC`
	rows, err := tc.db.Query(ctx, sql, locationId)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*model.TimeMachineEntry
	for rows.Next() {
		var e model.TimeMachineEntry
		var imageIds []byte
		if err := rows.Scan(&e.Id, &e.LocationId, &e.PanoramaId, &e.Year, &e.Month,
			&e.Label, &e.Description, &e.Address, &imageIds, &e.CreatedAt); err != nil {
			zap.S().Warnf("error scanning time machine row: %s", err.Error())
			continue
		}
		if len(imageIds) > 0 {
			json.Unmarshal(imageIds, &e.ImageIds)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
