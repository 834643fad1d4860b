package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoardStoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestPostgresStoreGet(t *testing.T) {
	db, mock, cleanup := newBoardStoreMock(t)
	defer cleanup()

	store := NewPostgresStore(db)
	mock.ExpectQuery("SELECT value FROM board_store").
		WithArgs(DefaultCollectionKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[]`))

	value, found, err := store.Get(context.Background(), DefaultCollectionKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetMissing(t *testing.T) {
	db, mock, cleanup := newBoardStoreMock(t)
	defer cleanup()

	store := NewPostgresStore(db)
	mock.ExpectQuery("SELECT value FROM board_store").
		WithArgs(DefaultCollectionKey).
		WillReturnError(sql.ErrNoRows)

	_, found, err := store.Get(context.Background(), DefaultCollectionKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresStoreGetError(t *testing.T) {
	db, mock, cleanup := newBoardStoreMock(t)
	defer cleanup()

	store := NewPostgresStore(db)
	mock.ExpectQuery("SELECT value FROM board_store").
		WithArgs(DefaultCollectionKey).
		WillReturnError(sql.ErrConnDone)

	_, _, err := store.Get(context.Background(), DefaultCollectionKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestPostgresStoreSet(t *testing.T) {
	db, mock, cleanup := newBoardStoreMock(t)
	defer cleanup()

	store := NewPostgresStore(db)
	mock.ExpectExec("INSERT INTO board_store").
		WithArgs(DefaultCollectionKey, `[{"id":"r-1"}]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Set(context.Background(), DefaultCollectionKey, `[{"id":"r-1"}]`))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreBacksRequestRepository(t *testing.T) {
	db, mock, cleanup := newBoardStoreMock(t)
	defer cleanup()

	repo := NewRequestRepository(NewPostgresStore(db), nil)
	mock.ExpectQuery("SELECT value FROM board_store").
		WithArgs(DefaultCollectionKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`not-json`))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
