// repository/locker/locker_repository_test.go
package locker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/diogo123310/lockeremergent/model"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSizeForNumber_Partition(t *testing.T) {
	// 24 lockers split 8/8/8
	for n := 1; n <= 24; n++ {
		got := sizeForNumber(n, 24)
		var want model.LockerSize
		switch {
		case n <= 8:
			want = model.SizeSmall
		case n <= 16:
			want = model.SizeMedium
		default:
			want = model.SizeLarge
		}
		require.Equal(t, want, got, "locker %d", n)
	}
}

func TestEnsureProvisioned_NoOpWhenPoolExists(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lockers`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(24))
	mock.ExpectCommit()

	created, err := r.EnsureProvisioned(context.Background(), 24)
	require.NoError(t, err)
	require.Zero(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureProvisioned_CreatesPool(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lockers`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for n := 1; n <= 24; n++ {
		mock.ExpectExec(`INSERT INTO lockers`).
			WithArgs(sqlmock.AnyArg(), n, sizeForNumber(n, 24), model.LockerAvailable, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	created, err := r.EnsureProvisioned(context.Background(), 24)
	require.NoError(t, err)
	require.Equal(t, 24, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPickAvailableForUpdate_ClaimsOne(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(model.SizeSmall, model.LockerAvailable).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "number", "size", "status", "current_rental_id", "created_at"},
		).AddRow("lk-1", 3, "small", "available", nil, time.Now()))
	mock.ExpectExec(`UPDATE lockers`).
		WithArgs("lk-1", model.LockerOccupied, "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	lk, err := r.PickAvailableForUpdate(context.Background(), tx, model.SizeSmall)
	require.NoError(t, err)
	require.Equal(t, "lk-1", lk.ID)
	require.Equal(t, 3, lk.Number)

	require.NoError(t, r.MarkOccupied(context.Background(), tx, lk.ID, "r-1"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPickAvailableForUpdate_NoneFree(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(model.SizeLarge, model.LockerAvailable).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	_, err = r.PickAvailableForUpdate(context.Background(), tx, model.SizeLarge)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

// Releasing a locker that is already available affects zero rows and is
// still not an error.
func TestRelease_Idempotent(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE lockers`).
		WithArgs("lk-1", model.LockerAvailable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, r.Release(context.Background(), tx, "lk-1"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAvailable(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(model.SizeMedium, model.LockerAvailable).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := r.CountAvailable(context.Background(), model.SizeMedium)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}
