package orm

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConnectionClosesOpenedDBOnBadEntity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	old := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { sqlOpen = old })

	_, err = setupConnection(ConnectionConfig{
		Name:     "broken",
		Driver:   "sqlite3",
		Entities: []Entity{zebra{}, untabled{}},
	})
	require.Error(t, err)
	assert.Nil(t, GetConnection("broken"))
	assert.EqualError(t, db.Ping(), "sql: database is closed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetupConnectionKeepsCallerDBOnBadEntity(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = SetupConnections(ConnectionConfig{
		Name:     "broken",
		DB:       db,
		Dialect:  Dialects.SQLite3,
		Entities: []Entity{untabled{}},
	})
	require.Error(t, err)
	assert.NoError(t, db.Ping())
}

func TestSetupConnectionsReplacesAndClosesOld(t *testing.T) {
	first, firstMock, err := sqlmock.New()
	require.NoError(t, err)
	firstMock.ExpectClose()
	second, secondMock, err := sqlmock.New()
	require.NoError(t, err)
	secondMock.ExpectClose()

	register := func(db *sql.DB) {
		require.NoError(t, SetupConnections(ConnectionConfig{
			Name:     "zoo",
			DB:       db,
			Dialect:  Dialects.SQLite3,
			Entities: []Entity{zebra{}},
		}))
	}

	register(first)
	register(second)
	assert.Same(t, second, GetConnection("zoo").DB)
	assert.EqualError(t, first.Ping(), "sql: database is closed")
	assert.NoError(t, firstMock.ExpectationsWereMet())

	register(second)
	assert.NoError(t, second.Ping(), "same pool registered again stays open")

	require.NoError(t, CloseConnection("zoo"))
	assert.NoError(t, secondMock.ExpectationsWereMet())
}
