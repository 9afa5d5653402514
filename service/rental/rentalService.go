package rental

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/diogo123310/lockeremergent/model"
	lockerrepo "github.com/diogo123310/lockeremergent/repository/locker"
	rentalrepo "github.com/diogo123310/lockeremergent/repository/rental"
	striperepo "github.com/diogo123310/lockeremergent/repository/stripe"
	"github.com/google/uuid"
)

// errors used by controllers

type ErrCode string

const (
	ErrNoAvailability ErrCode = "NO_AVAILABILITY"
	ErrInvalidSize    ErrCode = "INVALID_SIZE"
	ErrGateway        ErrCode = "GATEWAY"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type Created struct {
	RentalID    string
	CheckoutURL string
	SessionID   string
}

// Unlock responses carry the outcome in the body; a failed PIN check is a
// normal result, not an error. The messages are the customer-facing strings
// shown on the locker terminal.
type UnlockResult struct {
	Success      bool
	Message      string
	LockerNumber *int
}

const (
	msgInvalidPin = "Código PIN inválido ou cacifo não encontrado"
	msgExpired    = "Tempo de armazenamento expirado"
	msgUnlocked   = "Cacifo desbloqueado com sucesso"
)

// pinAttempts bounds retries when a generated PIN collides with another
// active rental's PIN.
const pinAttempts = 5

type Service interface {
	// Create reserves a locker of the given size, opens a checkout session
	// and persists the pending rental.
	Create(ctx context.Context, size model.LockerSize) (*Created, error)

	// Unlock checks (locker number, PIN) against paid, unexpired rentals.
	// A rental found past its end time is lazily expired here.
	Unlock(ctx context.Context, lockerNumber int, pin string) (*UnlockResult, error)

	// ExpireAndRelease flips the rental to expired and frees its locker.
	// Idempotent: the second of two racing callers flips nothing and leaves
	// the locker alone. Reports whether this call did the flip.
	ExpireAndRelease(ctx context.Context, rentalID, lockerID string) (bool, error)

	// ListAll dumps the ledger for the admin endpoint.
	ListAll(ctx context.Context) ([]model.Rental, error)
}

// ----- Service implementation -----

type service struct {
	db      *sql.DB
	lockers lockerrepo.Repo
	rentals rentalrepo.Repo
	gw      striperepo.Repo

	rentalDuration time.Duration
	baseURL        string

	now func() time.Time
}

func New(db *sql.DB, lockers lockerrepo.Repo, rentals rentalrepo.Repo, gw striperepo.Repo, rentalDuration time.Duration, baseURL string) Service {
	return &service{
		db:             db,
		lockers:        lockers,
		rentals:        rentals,
		gw:             gw,
		rentalDuration: rentalDuration,
		baseURL:        baseURL,
		now:            time.Now,
	}
}

// Create reserves a locker and the rental row in one transaction, then asks
// Stripe for a checkout session. A gateway failure after the commit is
// compensated: the rental is marked failed and the locker released, so no
// locker stays occupied without a payable rental.
func (s *service) Create(ctx context.Context, size model.LockerSize) (*Created, error) {
	if !model.ValidSize(size) {
		return nil, makeErr(ErrInvalidSize)
	}

	pin, err := s.freshPIN(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rt := &model.Rental{
		ID:            uuid.NewString(),
		LockerSize:    size,
		AccessPin:     pin,
		PaymentStatus: model.PaymentPending,
		Amount:        model.PricePer24h(size),
		Currency:      "EUR",
		StartTime:     now,
		EndTime:       now.Add(s.rentalDuration),
		CreatedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lk, err := s.lockers.PickAvailableForUpdate(ctx, tx, size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = makeErr(ErrNoAvailability)
		}
		return nil, err
	}

	if err = s.lockers.MarkOccupied(ctx, tx, lk.ID, rt.ID); err != nil {
		return nil, err
	}

	rt.LockerID = lk.ID
	rt.LockerNumber = lk.Number
	if err = s.rentals.Insert(ctx, tx, rt); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	sess, err := s.gw.CreateSession(ctx, striperepo.CreateSessionReq{
		Amount:     rt.Amount,
		Currency:   "eur",
		SuccessURL: s.baseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/payment-cancelled",
		Metadata: map[string]string{
			"rental_id":     rt.ID,
			"locker_number": fmt.Sprintf("%d", rt.LockerNumber),
			"access_pin":    rt.AccessPin,
		},
	})
	if err != nil {
		// must also run when ctx timed out mid-call
		s.rollbackCreate(context.WithoutCancel(ctx), rt.ID, lk.ID)
		return nil, fmt.Errorf("create checkout session: %v: %w", err, makeErr(ErrGateway))
	}

	if err = s.rentals.SetSession(ctx, rt.ID, sess.SessionID); err != nil {
		s.rollbackCreate(context.WithoutCancel(ctx), rt.ID, lk.ID)
		return nil, err
	}

	if err = s.rentals.InsertTransaction(ctx, &model.PaymentTransaction{
		ID:            uuid.NewString(),
		SessionID:     sess.SessionID,
		RentalID:      rt.ID,
		Amount:        rt.Amount,
		Currency:      rt.Currency,
		PaymentStatus: model.PaymentPending,
		Metadata: map[string]string{
			"rental_id":     rt.ID,
			"locker_number": fmt.Sprintf("%d", rt.LockerNumber),
			"access_pin":    rt.AccessPin,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &Created{
		RentalID:    rt.ID,
		CheckoutURL: sess.URL,
		SessionID:   sess.SessionID,
	}, nil
}

// rollbackCreate compensates a creation whose checkout session never
// materialised. The rental row stays as audit: failed and expired.
func (s *service) rollbackCreate(ctx context.Context, rentalID, lockerID string) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.rentals.MarkFailed(ctx, tx, rentalID); err != nil {
		return
	}
	if err = s.lockers.Release(ctx, tx, lockerID); err != nil {
		return
	}
	err = tx.Commit()
}

func (s *service) Unlock(ctx context.Context, lockerNumber int, pin string) (*UnlockResult, error) {
	rt, err := s.rentals.FindActiveByPin(ctx, lockerNumber, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Deliberately the same answer for wrong PIN and for a correct
			// PIN on an unpaid or expired rental.
			return &UnlockResult{Success: false, Message: msgInvalidPin}, nil
		}
		return nil, err
	}

	if s.now().UTC().After(rt.EndTime) {
		// lazy expiry, same primitive as the sweeper
		if _, err := s.ExpireAndRelease(ctx, rt.ID, rt.LockerID); err != nil {
			return nil, err
		}
		return &UnlockResult{Success: false, Message: msgExpired}, nil
	}

	// Hardware actuation happens outside this service; the relay controller
	// acts on the success result.
	n := rt.LockerNumber
	return &UnlockResult{Success: true, Message: msgUnlocked, LockerNumber: &n}, nil
}

func (s *service) ExpireAndRelease(ctx context.Context, rentalID, lockerID string) (flipped bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	flipped, err = s.rentals.MarkExpired(ctx, tx, rentalID)
	if err != nil {
		return false, err
	}
	if !flipped {
		// someone else expired it; the locker was released by the winner
		_ = tx.Rollback()
		return false, nil
	}
	if err = s.lockers.Release(ctx, tx, lockerID); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) ListAll(ctx context.Context) ([]model.Rental, error) {
	return s.rentals.ListAll(ctx)
}

// freshPIN draws 6-digit PINs until one is unused among active rentals.
func (s *service) freshPIN(ctx context.Context) (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin, err := generatePIN()
		if err != nil {
			return "", err
		}
		exists, err := s.rentals.ActivePinExists(ctx, pin)
		if err != nil {
			return "", err
		}
		if !exists {
			return pin, nil
		}
	}
	return "", errors.New("could not allocate an unused access pin")
}

func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
