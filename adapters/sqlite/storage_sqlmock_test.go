package sqlite_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"levelkit/adapters/sqlite"
	"levelkit/core"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(sqlx.NewDb(db, "sqlite"), "mock.db"), mock
}

func expectGuard(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT name FROM sqlite_master`).
		WithArgs("leaderboard").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("leaderboard"))
	mock.ExpectQuery(`PRAGMA table_info`).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "tenant_id", "INTEGER", 1, nil, 0).
			AddRow(1, "member_id", "INTEGER", 1, nil, 0).
			AddRow(2, "member_name", "TEXT", 1, nil, 0).
			AddRow(3, "member_level", "INTEGER", 1, nil, 0).
			AddRow(4, "member_xp", "INTEGER", 1, nil, 0).
			AddRow(5, "member_total_xp", "INTEGER", 1, nil, 0))
}

func TestSQLMock_UpsertInsertsWhenUpdateMissesRow(t *testing.T) {
	store, mock := newMockStore(t)

	expectGuard(mock)
	mock.ExpectExec(`UPDATE leaderboard SET`).
		WithArgs("frank", 1, int64(5), int64(105), int64(9), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO leaderboard`).
		WithArgs(int64(9), int64(42), "frank", 1, int64(5), int64(105)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Upsert(context.Background(), core.MemberRecord{
		TenantID: 9, MemberID: 42, Name: "frank", Level: 1, XP: 5, TotalXP: 105,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UpsertUpdatesInPlace(t *testing.T) {
	store, mock := newMockStore(t)

	expectGuard(mock)
	mock.ExpectExec(`UPDATE leaderboard SET`).
		WithArgs("frank", 2, int64(0), int64(260), int64(9), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), core.MemberRecord{
		TenantID: 9, MemberID: 42, Name: "frank", Level: 2, XP: 0, TotalXP: 260,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_IncrementTouchesBothCounters(t *testing.T) {
	store, mock := newMockStore(t)

	expectGuard(mock)
	mock.ExpectExec(`UPDATE leaderboard SET member_xp = member_xp \+ \?, member_total_xp = member_total_xp \+ \?`).
		WithArgs(int64(20), int64(20), int64(9), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.IncrementXP(context.Background(), 9, 42, 20)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SchemaDriftFailsGuard(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT name FROM sqlite_master`).
		WithArgs("leaderboard").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("leaderboard"))
	mock.ExpectQuery(`PRAGMA table_info`).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "tenant_id", "INTEGER", 1, nil, 0).
			AddRow(1, "member_id", "INTEGER", 1, nil, 0))

	_, err := store.Get(context.Background(), 9, 42)
	require.ErrorIs(t, err, core.ErrSchemaCorrupted)
	require.NoError(t, mock.ExpectationsWereMet())
}
