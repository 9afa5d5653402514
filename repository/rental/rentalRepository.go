// repository/rental/repo.go
package rental

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/diogo123310/lockeremergent/model"
)

// Repo is the rental ledger: plain storage over rentals and payment
// transactions. No business policy lives here; the guarded updates exist so
// callers can rely on compare-and-set semantics instead of in-process locks.
type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, r *model.Rental) error
	SetSession(ctx context.Context, rentalID, sessionID string) error

	FindBySession(ctx context.Context, sessionID string) (*model.Rental, error)
	FindActiveByPin(ctx context.Context, lockerNumber int, pin string) (*model.Rental, error)
	FindExpiredCandidates(ctx context.Context, now time.Time) ([]model.Rental, error)
	ActivePinExists(ctx context.Context, pin string) (bool, error)
	ListAll(ctx context.Context) ([]model.Rental, error)

	// MarkPaidBySession flips pending -> success; reports whether this call
	// did the flip (false when already paid or session unknown).
	MarkPaidBySession(ctx context.Context, sessionID string) (bool, error)

	// MarkExpired flips is_expired only when currently false; reports whether
	// this call did the flip.
	MarkExpired(ctx context.Context, tx *sql.Tx, rentalID string) (bool, error)

	// MarkFailed records a creation that could not obtain a checkout session.
	MarkFailed(ctx context.Context, tx *sql.Tx, rentalID string) error

	InsertTransaction(ctx context.Context, t *model.PaymentTransaction) error
	UpdateTransactionBySession(ctx context.Context, sessionID string, status model.PaymentStatus, now time.Time) error
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rt *model.Rental) error {
	const q = `
		INSERT INTO rentals
			(id, locker_id, locker_number, locker_size, access_pin,
			 payment_session_id, payment_status, amount, currency,
			 start_time, end_time, is_expired, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := tx.ExecContext(ctx, q,
		rt.ID, rt.LockerID, rt.LockerNumber, rt.LockerSize, rt.AccessPin,
		rt.PaymentSessionID, rt.PaymentStatus, rt.Amount, rt.Currency,
		rt.StartTime, rt.EndTime, rt.IsExpired, rt.CreatedAt,
	)
	return err
}

func (r *repo) SetSession(ctx context.Context, rentalID, sessionID string) error {
	const q = `
		UPDATE rentals
		SET payment_session_id = $2
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, rentalID, sessionID)
	return err
}

const rentalColumns = `
	id, locker_id, locker_number, locker_size, access_pin,
	payment_session_id, payment_status, amount, currency,
	start_time, end_time, is_expired, created_at`

func scanRental(row *sql.Row) (*model.Rental, error) {
	var rt model.Rental
	err := row.Scan(
		&rt.ID, &rt.LockerID, &rt.LockerNumber, &rt.LockerSize, &rt.AccessPin,
		&rt.PaymentSessionID, &rt.PaymentStatus, &rt.Amount, &rt.Currency,
		&rt.StartTime, &rt.EndTime, &rt.IsExpired, &rt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *repo) FindBySession(ctx context.Context, sessionID string) (*model.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE payment_session_id = $1`
	return scanRental(r.db.QueryRowContext(ctx, q, sessionID))
}

func (r *repo) FindActiveByPin(ctx context.Context, lockerNumber int, pin string) (*model.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE locker_number = $1
		AND access_pin = $2
		AND payment_status = $3
		AND is_expired = FALSE`
	return scanRental(r.db.QueryRowContext(ctx, q, lockerNumber, pin, model.PaymentSuccess))
}

func (r *repo) FindExpiredCandidates(ctx context.Context, now time.Time) ([]model.Rental, error) {
	// Only paid rentals are swept; unpaid ones hold their locker until the
	// payment flow resolves them.
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE end_time < $1
		AND is_expired = FALSE
		AND payment_status = $2`
	rows, err := r.db.QueryContext(ctx, q, now, model.PaymentSuccess)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRentals(rows)
}

func (r *repo) ActivePinExists(ctx context.Context, pin string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM rentals
			WHERE access_pin = $1
			AND is_expired = FALSE
		)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, pin).Scan(&exists)
	return exists, err
}

func (r *repo) ListAll(ctx context.Context) ([]model.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRentals(rows)
}

func collectRentals(rows *sql.Rows) ([]model.Rental, error) {
	var out []model.Rental
	for rows.Next() {
		var rt model.Rental
		if err := rows.Scan(
			&rt.ID, &rt.LockerID, &rt.LockerNumber, &rt.LockerSize, &rt.AccessPin,
			&rt.PaymentSessionID, &rt.PaymentStatus, &rt.Amount, &rt.Currency,
			&rt.StartTime, &rt.EndTime, &rt.IsExpired, &rt.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *repo) MarkPaidBySession(ctx context.Context, sessionID string) (bool, error) {
	// Guard: only flip from pending so concurrent confirmations apply once.
	const q = `
		UPDATE rentals
		SET payment_status = $2
		WHERE payment_session_id = $1
		AND payment_status = $3`
	res, err := r.db.ExecContext(ctx, q, sessionID, model.PaymentSuccess, model.PaymentPending)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) MarkExpired(ctx context.Context, tx *sql.Tx, rentalID string) (bool, error) {
	// Guard: is_expired is monotonic, the loser of a race flips nothing.
	const q = `
		UPDATE rentals
		SET is_expired = TRUE
		WHERE id = $1
		AND is_expired = FALSE`
	res, err := tx.ExecContext(ctx, q, rentalID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) MarkFailed(ctx context.Context, tx *sql.Tx, rentalID string) error {
	const q = `
		UPDATE rentals
		SET payment_status = $2,
			is_expired = TRUE
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, rentalID, model.PaymentFailed)
	return err
}

func (r *repo) InsertTransaction(ctx context.Context, t *model.PaymentTransaction) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO payment_transactions
			(id, session_id, rental_id, amount, currency, payment_status,
			 metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, q,
		t.ID, t.SessionID, t.RentalID, t.Amount, t.Currency, t.PaymentStatus,
		meta, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *repo) UpdateTransactionBySession(ctx context.Context, sessionID string, status model.PaymentStatus, now time.Time) error {
	const q = `
		UPDATE payment_transactions
		SET payment_status = $2,
			updated_at = $3
		WHERE session_id = $1`
	_, err := r.db.ExecContext(ctx, q, sessionID, status, now)
	return err
}
