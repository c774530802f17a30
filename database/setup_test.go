package database

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//A populated users table means a prior run finished: Seed must not write.
func TestSeedSkipsPopulatedDatabase(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	skipped, err := Seed(context.Background(), mock)

	assert.NoError(t, err)
	assert.True(t, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedInsertsUsersAndOfficers(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	for i := 0; i < 4; i++ {
		mock.ExpectExec("INSERT INTO government_users").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	skipped, err := Seed(context.Background(), mock)

	assert.NoError(t, err)
	assert.False(t, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
