package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
)

func newMockRepository(t *testing.T, dialect Dialect) (RecordRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRecordRepository(NewDatabaseServiceFromDB(db, dialect)), mock
}

var recordColumnNames = []string{"id", "user_id", "seed", "pieces_locked", "rows_cleared", "ticks", "started_at", "ended_at"}

func TestDialect_Placeholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", DialectPostgres.Placeholders(3))
	assert.Equal(t, "?, ?, ?", DialectMySQL.Placeholders(3))

	d, err := ParseDialect("MySQL")
	require.NoError(t, err)
	assert.Equal(t, DialectMySQL, d)

	d, err = ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)

	_, err = ParseDialect("sqlite")
	assert.Error(t, err)
}

func TestCreateRecord(t *testing.T) {
	for _, tc := range []struct {
		dialect Dialect
		values  string
	}{
		{DialectPostgres, "$1, $2, $3, $4, $5, $6, $7, $8"},
		{DialectMySQL, "?, ?, ?, ?, ?, ?, ?, ?"},
	} {
		t.Run(string(tc.dialect), func(t *testing.T) {
			repo, mock := newMockRepository(t, tc.dialect)
			started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_records ("+recordColumns+") VALUES ("+tc.values+")")).
				WithArgs("sess-1", "user-1", "18446744073709551615", 12, 3, 900, started, started.Add(time.Minute)).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.CreateRecord(context.Background(), &models.SessionRecord{
				ID:           "sess-1",
				UserID:       "user-1",
				Seed:         18446744073709551615,
				PiecesLocked: 12,
				RowsCleared:  3,
				Ticks:        900,
				StartedAt:    started,
				EndedAt:      started.Add(time.Minute),
			})
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetRecentRecords(t *testing.T) {
	repo, mock := newMockRepository(t, DialectPostgres)
	ended := time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + recordColumns + " FROM session_records ORDER BY ended_at DESC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(recordColumnNames).
			AddRow("b", "user-1", "7", 4, 1, 300, ended.Add(-time.Minute), ended).
			AddRow("a", "user-2", "8", 2, 0, 120, ended.Add(-time.Hour), ended.Add(-50*time.Minute)))

	records, err := repo.GetRecentRecords(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, uint64(7), records[0].Seed)
	assert.Equal(t, time.Minute, records[0].Duration())
	assert.Equal(t, 0, records[1].RowsCleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentRecords_Empty(t *testing.T) {
	repo, mock := newMockRepository(t, DialectMySQL)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(recordColumnNames))

	records, err := repo.GetRecentRecords(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestGetRecordByID(t *testing.T) {
	repo, mock := newMockRepository(t, DialectPostgres)
	ended := time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("sess-9").
		WillReturnRows(sqlmock.NewRows(recordColumnNames).
			AddRow("sess-9", "user-1", "99", 5, 2, 400, ended.Add(-time.Minute), ended))

	record, err := repo.GetRecordByID(context.Background(), "sess-9")
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, uint64(99), record.Seed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecordByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t, DialectPostgres)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetRecordByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetRecordByID_BadSeed(t *testing.T) {
	repo, mock := newMockRepository(t, DialectPostgres)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("x").
		WillReturnRows(sqlmock.NewRows(recordColumnNames).
			AddRow("x", "u", "not-a-number", 0, 0, 0, now, now))

	_, err := repo.GetRecordByID(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecordNotFound)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewDatabaseServiceFromDB(db, DialectPostgres)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.EnsureSchema())
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, NewDatabaseServiceFromDB(db, Dialect("oracle")).EnsureSchema())
}
