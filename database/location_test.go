package database

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlens/panorama/api/model"
)

func testLocation(name string) *model.Location {
	return &model.Location{
		Name:     name,
		Position: orb.Point{114.4, 23.5},
		Rating:   4.5,
		Category: "panorama site",
	}
}

func locationRow(id int64, name string, panoramaId interface{}) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "name", "longitude", "latitude", "rating", "category",
		"description", "address", "panorama_id", "created_at", "updated_at"}).
		AddRow(id, name, 114.4, 23.5, 4.5, "panorama site", "", "", panoramaId, now, now)
}

func TestAttachPanoramaLocationAlreadyClaimed(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	claimed := int64(7)
	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WillReturnRows(locationRow(1, "harbor", &claimed))

	lc := NewLocationController(mock)
	err = lc.AttachPanorama(context.Background(), 1, 9, nil)

	assert.Equal(t, ErrLocationClaimed, err)
	//nothing beyond the lookup may run
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachPanoramaAlreadyUsedElsewhere(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WillReturnRows(locationRow(1, "harbor", nil))
	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	lc := NewLocationController(mock)
	err = lc.AttachPanorama(context.Background(), 1, 9, nil)

	assert.Equal(t, ErrPanoramaClaimed, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachPanorama(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WillReturnRows(locationRow(1, "harbor", nil))
	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE locations SET panorama_id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO panorama_preview_images").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	lc := NewLocationController(mock)
	err = lc.AttachPanorama(context.Background(), 1, 9, []int64{4})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetachPanoramaRemovesPreviews(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	claimed := int64(7)
	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WillReturnRows(locationRow(1, "harbor", &claimed))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE locations SET panorama_id=NULL").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM panorama_preview_images").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	lc := NewLocationController(mock)
	panoramaId, err := lc.DetachPanorama(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), panoramaId)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetachPanoramaNothingAttached(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WillReturnRows(locationRow(1, "harbor", nil))

	lc := NewLocationController(mock)
	_, err = lc.DetachPanorama(context.Background(), 1)

	assert.Equal(t, ErrNothingToDetach, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Deleting a location must never touch the panoramas table: the panorama
//survives its location.
func TestDeleteLocationPreservesPanorama(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	claimed := int64(7)
	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WillReturnRows(locationRow(1, "harbor", &claimed))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM panorama_preview_images").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM locations").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	lc := NewLocationController(mock)
	location, err := lc.DeleteLocation(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, "harbor", location.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddLocationNameTaken(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	lc := NewLocationController(mock)
	location := testLocation("harbor")
	err = lc.AddLocation(context.Background(), location)

	assert.Equal(t, ErrNameTaken, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
