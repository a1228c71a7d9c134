package cache

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/zstadler/mapproxy/internal/grid"
)

func TestNewPostgresStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "tiles; DROP TABLE tiles")
	require.Error(t, err)

	store, err := NewPostgresStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "tiles", store.table)
}

func TestPostgresStoreModTime(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "tiles")
	require.NoError(t, err)

	updated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	query := "SELECT updated_at FROM tiles WHERE level = $1 AND x = $2 AND y = $3"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(3, 1, 2).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))

	modTime, ok, err := store.ModTime(context.Background(), grid.TileCoord{X: 1, Y: 2, Level: 3})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, updated, modTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreModTimeMissingRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "tiles")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT updated_at FROM tiles").
		WithArgs(7, 9, 9).
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := store.ModTime(context.Background(), grid.TileCoord{X: 9, Y: 9, Level: 7})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePutUpserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "tiles")
	require.NoError(t, err)

	data := []byte{0x89, 'P', 'N', 'G'}
	mock.ExpectExec("INSERT INTO tiles .+ ON CONFLICT .+ DO UPDATE").
		WithArgs(4, 2, 6, data).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.Put(context.Background(), grid.TileCoord{X: 2, Y: 6, Level: 4}, data)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
