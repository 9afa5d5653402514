// repository/locker/repo.go
package locker

import (
	"context"
	"database/sql"
	"time"

	"github.com/diogo123310/lockeremergent/model"
	"github.com/google/uuid"
)

type Repo interface {
	// Provisioning
	EnsureProvisioned(ctx context.Context, total int) (created int, err error)

	// Availability
	CountAvailable(ctx context.Context, size model.LockerSize) (int64, error)

	// Claim: both steps run inside the caller's tx so no two callers are
	// handed the same locker.
	PickAvailableForUpdate(ctx context.Context, tx *sql.Tx, size model.LockerSize) (*model.Locker, error)
	MarkOccupied(ctx context.Context, tx *sql.Tx, lockerID, rentalID string) error

	// Release is idempotent: releasing an already-available locker is a no-op.
	Release(ctx context.Context, tx *sql.Tx, lockerID string) error

	ListAll(ctx context.Context) ([]model.Locker, error)
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

// sizeForNumber partitions the pool into thirds: first third small, next
// third medium, remainder large (24 lockers -> 8/8/8).
func sizeForNumber(number, total int) model.LockerSize {
	switch {
	case number <= total/3:
		return model.SizeSmall
	case number <= 2*total/3:
		return model.SizeMedium
	default:
		return model.SizeLarge
	}
}

func (r *repo) EnsureProvisioned(ctx context.Context, total int) (created int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM lockers`).Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		// pool already provisioned, leave it alone
		return 0, tx.Commit()
	}

	const q = `
		INSERT INTO lockers (id, number, size, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	now := time.Now().UTC()
	for n := 1; n <= total; n++ {
		if _, err = tx.ExecContext(ctx, q, uuid.NewString(), n, sizeForNumber(n, total), model.LockerAvailable, now); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) CountAvailable(ctx context.Context, size model.LockerSize) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM lockers
		WHERE size = $1
		AND status = $2`
	var n int64
	err := r.db.QueryRowContext(ctx, q, size, model.LockerAvailable).Scan(&n)
	return n, err
}

func (r *repo) PickAvailableForUpdate(ctx context.Context, tx *sql.Tx, size model.LockerSize) (*model.Locker, error) {
	// Prevent double reservation with SKIP LOCKED
	const q = `
		SELECT id, number, size, status, current_rental_id, created_at
		FROM lockers
		WHERE size = $1
		AND status = $2
		ORDER BY number
		FOR UPDATE SKIP LOCKED
		LIMIT 1`
	var lk model.Locker
	err := tx.QueryRowContext(ctx, q, size, model.LockerAvailable).Scan(
		&lk.ID, &lk.Number, &lk.Size, &lk.Status, &lk.CurrentRentalID, &lk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lk, nil
}

func (r *repo) MarkOccupied(ctx context.Context, tx *sql.Tx, lockerID, rentalID string) error {
	const q = `
		UPDATE lockers
		SET status = $2,
			current_rental_id = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, lockerID, model.LockerOccupied, rentalID)
	return err
}

func (r *repo) Release(ctx context.Context, tx *sql.Tx, lockerID string) error {
	const q = `
		UPDATE lockers
		SET status = $2,
			current_rental_id = NULL
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, lockerID, model.LockerAvailable)
	return err
}

func (r *repo) ListAll(ctx context.Context) ([]model.Locker, error) {
	const q = `
		SELECT id, number, size, status, current_rental_id, created_at
		FROM lockers
		ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Locker
	for rows.Next() {
		var lk model.Locker
		if err := rows.Scan(&lk.ID, &lk.Number, &lk.Size, &lk.Status, &lk.CurrentRentalID, &lk.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, lk)
	}
	return out, rows.Err()
}
