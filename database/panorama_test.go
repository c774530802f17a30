package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/pashagolub/pgxmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//Deleting a panorama detaches its owning location and removes the dependent
//rows in one transaction: snapshots, preview associations, then the panorama.
func TestDeletePanoramaCascades(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM panoramas WHERE id").
		WillReturnRows(panoramaRows(21))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE locations SET panorama_id=NULL").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM time_machine_data WHERE panorama_id").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM panorama_preview_images WHERE panorama_id").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM panoramas WHERE id").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	pc := NewPanoramaController(mock)
	err = pc.DeletePanorama(context.Background(), 21)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePanoramaMissing(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM panoramas WHERE id").
		WillReturnError(pgx.ErrNoRows)

	pc := NewPanoramaController(mock)
	err = pc.DeletePanorama(context.Background(), 99)

	assert.Equal(t, pgx.ErrNoRows, err)
	//nothing is written for an unknown id
	assert.NoError(t, mock.ExpectationsWereMet())
}
