package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/monitoring"
)

func setupDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := NewFromSQL(sqlDB, logger.New("error"))
	return db.WithMetrics(monitoring.NewMetricsCollector("database-test")), mock
}

func TestExec_PassesThrough(t *testing.T) {
	db, mock := setupDB(t)

	mock.ExpectExec("UPDATE users SET").
		WithArgs("Asha", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := db.Exec("UPDATE users SET name = $1 WHERE id = $2", "Asha", "user-1")
	require.NoError(t, err)

	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_PassesThrough(t *testing.T) {
	db, mock := setupDB(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("u1").AddRow("u2")
	mock.ExpectQuery("SELECT id FROM users").WillReturnRows(rows)

	got, err := db.Query("SELECT id FROM users")
	require.NoError(t, err)
	defer got.Close()

	var count int
	for got.Next() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestQueryRow_PassesThrough(t *testing.T) {
	db, mock := setupDB(t)

	mock.ExpectQuery("SELECT name FROM users").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Asha"))

	var name string
	err := db.QueryRow("SELECT name FROM users WHERE id = $1", "user-1").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "Asha", name)
}
