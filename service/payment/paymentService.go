package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/diogo123310/lockeremergent/model"
	rentalrepo "github.com/diogo123310/lockeremergent/repository/rental"
	striperepo "github.com/diogo123310/lockeremergent/repository/stripe"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrGateway      ErrCode = "GATEWAY"
	ErrBadSignature ErrCode = "BAD_SIGNATURE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Status is the poll response. The credential fields are only present once
// the payment is confirmed.
type Status struct {
	PaymentStatus string     `json:"payment_status"`
	Status        string     `json:"status,omitempty"`
	RentalID      string     `json:"rental_id,omitempty"`
	LockerNumber  int        `json:"locker_number,omitempty"`
	AccessPin     string     `json:"access_pin,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

type Service interface {
	// PollStatus asks the gateway for the session state and, when paid,
	// confirms the rental. Safe to call repeatedly and concurrently with the
	// webhook path.
	PollStatus(ctx context.Context, sessionID string) (*Status, error)

	// HandleWebhook verifies the gateway event and confirms the rental on
	// checkout completion. A bad signature mutates nothing.
	HandleWebhook(ctx context.Context, sigHeader string, raw []byte) error
}

type service struct {
	rentals rentalrepo.Repo
	gw      striperepo.Repo

	now func() time.Time
}

func New(rentals rentalrepo.Repo, gw striperepo.Repo) Service {
	return &service{rentals: rentals, gw: gw, now: time.Now}
}

const paidStatus = "paid"

func (s *service) PollStatus(ctx context.Context, sessionID string) (*Status, error) {
	rt, err := s.rentals.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	st, err := s.gw.GetStatus(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("poll session status: %v: %w", err, makeErr(ErrGateway))
	}

	if st.PaymentStatus != paidStatus {
		// keep the audit row's clock moving, status stays pending
		if err := s.rentals.UpdateTransactionBySession(ctx, sessionID, model.PaymentPending, s.now().UTC()); err != nil {
			return nil, err
		}
		return &Status{PaymentStatus: st.PaymentStatus, Status: st.Status}, nil
	}

	if err := s.applyPaid(ctx, sessionID); err != nil {
		return nil, err
	}
	end := rt.EndTime
	return &Status{
		PaymentStatus: paidStatus,
		RentalID:      rt.ID,
		LockerNumber:  rt.LockerNumber,
		AccessPin:     rt.AccessPin,
		EndTime:       &end,
	}, nil
}

func (s *service) HandleWebhook(ctx context.Context, sigHeader string, raw []byte) error {
	ev, err := s.gw.VerifyWebhook(raw, sigHeader)
	if err != nil {
		if errors.Is(err, striperepo.ErrInvalidSignature) {
			return fmt.Errorf("%v: %w", err, makeErr(ErrBadSignature))
		}
		return err
	}

	if ev.Type != "checkout.session.completed" {
		return nil
	}

	if _, err := s.rentals.FindBySession(ctx, ev.SessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return s.applyPaid(ctx, ev.SessionID)
}

// applyPaid is the single confirmation funnel for the poll and webhook
// paths. The rental flip is guarded in storage, so a double invocation
// applies exactly once; the transaction update just re-writes the same
// terminal value. The locker is untouched: it has been occupied since
// creation.
func (s *service) applyPaid(ctx context.Context, sessionID string) error {
	if _, err := s.rentals.MarkPaidBySession(ctx, sessionID); err != nil {
		return err
	}
	return s.rentals.UpdateTransactionBySession(ctx, sessionID, model.PaymentSuccess, s.now().UTC())
}
