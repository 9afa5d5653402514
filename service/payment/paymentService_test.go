// service/payment/payment_service_test.go
package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diogo123310/lockeremergent/model"
	striperepo "github.com/diogo123310/lockeremergent/repository/stripe"
	"github.com/stretchr/testify/require"
)

type repoMock struct {
	bySessionFn func(ctx context.Context, sessionID string) (*model.Rental, error)
	markPaidFn  func(ctx context.Context, sessionID string) (bool, error)
	updateTxnFn func(ctx context.Context, sessionID string, status model.PaymentStatus, now time.Time) error
}

func (m *repoMock) Insert(ctx context.Context, tx *sql.Tx, r *model.Rental) error { return nil }
func (m *repoMock) SetSession(ctx context.Context, rentalID, sessionID string) error {
	return nil
}
func (m *repoMock) FindBySession(ctx context.Context, sessionID string) (*model.Rental, error) {
	return m.bySessionFn(ctx, sessionID)
}
func (m *repoMock) FindActiveByPin(ctx context.Context, lockerNumber int, pin string) (*model.Rental, error) {
	return nil, sql.ErrNoRows
}
func (m *repoMock) FindExpiredCandidates(ctx context.Context, now time.Time) ([]model.Rental, error) {
	return nil, nil
}
func (m *repoMock) ActivePinExists(ctx context.Context, pin string) (bool, error) {
	return false, nil
}
func (m *repoMock) ListAll(ctx context.Context) ([]model.Rental, error) { return nil, nil }
func (m *repoMock) MarkPaidBySession(ctx context.Context, sessionID string) (bool, error) {
	return m.markPaidFn(ctx, sessionID)
}
func (m *repoMock) MarkExpired(ctx context.Context, tx *sql.Tx, rentalID string) (bool, error) {
	return false, nil
}
func (m *repoMock) MarkFailed(ctx context.Context, tx *sql.Tx, rentalID string) error { return nil }
func (m *repoMock) InsertTransaction(ctx context.Context, t *model.PaymentTransaction) error {
	return nil
}
func (m *repoMock) UpdateTransactionBySession(ctx context.Context, sessionID string, status model.PaymentStatus, now time.Time) error {
	if m.updateTxnFn == nil {
		return nil
	}
	return m.updateTxnFn(ctx, sessionID, status, now)
}

type gatewayMock struct {
	statusFn func(ctx context.Context, sessionID string) (*striperepo.SessionStatus, error)
	verifyFn func(rawBody []byte, sigHeader string) (*striperepo.WebhookEvent, error)
}

func (m *gatewayMock) CreateSession(ctx context.Context, req striperepo.CreateSessionReq) (*striperepo.CreateSessionResp, error) {
	return nil, errors.New("not used")
}
func (m *gatewayMock) GetStatus(ctx context.Context, sessionID string) (*striperepo.SessionStatus, error) {
	return m.statusFn(ctx, sessionID)
}
func (m *gatewayMock) VerifyWebhook(rawBody []byte, sigHeader string) (*striperepo.WebhookEvent, error) {
	return m.verifyFn(rawBody, sigHeader)
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testRental() *model.Rental {
	sid := "cs_test_1"
	return &model.Rental{
		ID:               "r-1",
		LockerID:         "lk-1",
		LockerNumber:     7,
		AccessPin:        "123456",
		PaymentSessionID: &sid,
		PaymentStatus:    model.PaymentPending,
		EndTime:          fixedNow().Add(24 * time.Hour),
	}
}

// --- tests ---

func TestPoll_UnknownSession(t *testing.T) {
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := New(rm, &gatewayMock{})

	_, err := s.PollStatus(context.Background(), "cs_missing")
	require.Equal(t, ErrNotFound, Code(err))
}

func TestPoll_Paid(t *testing.T) {
	var marked, txnStatus []model.PaymentStatus
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return testRental(), nil
		},
		markPaidFn: func(ctx context.Context, sessionID string) (bool, error) {
			marked = append(marked, model.PaymentSuccess)
			return true, nil
		},
		updateTxnFn: func(ctx context.Context, sessionID string, status model.PaymentStatus, now time.Time) error {
			txnStatus = append(txnStatus, status)
			return nil
		},
	}
	gm := &gatewayMock{
		statusFn: func(ctx context.Context, sessionID string) (*striperepo.SessionStatus, error) {
			return &striperepo.SessionStatus{PaymentStatus: "paid", Status: "complete"}, nil
		},
	}
	s := New(rm, gm)

	st, err := s.PollStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, "paid", st.PaymentStatus)
	require.Equal(t, "r-1", st.RentalID)
	require.Equal(t, 7, st.LockerNumber)
	require.Equal(t, "123456", st.AccessPin)
	require.NotNil(t, st.EndTime)
	require.Len(t, marked, 1)
	require.Equal(t, []model.PaymentStatus{model.PaymentSuccess}, txnStatus)
}

func TestPoll_Unpaid(t *testing.T) {
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return testRental(), nil
		},
		markPaidFn: func(ctx context.Context, sessionID string) (bool, error) {
			t.Fatal("unpaid poll must not mark the rental")
			return false, nil
		},
	}
	gm := &gatewayMock{
		statusFn: func(ctx context.Context, sessionID string) (*striperepo.SessionStatus, error) {
			return &striperepo.SessionStatus{PaymentStatus: "unpaid", Status: "open"}, nil
		},
	}
	s := New(rm, gm)

	st, err := s.PollStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, "unpaid", st.PaymentStatus)
	require.Equal(t, "open", st.Status)
	require.Empty(t, st.AccessPin)
}

func TestPoll_GatewayError(t *testing.T) {
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return testRental(), nil
		},
	}
	gm := &gatewayMock{
		statusFn: func(ctx context.Context, sessionID string) (*striperepo.SessionStatus, error) {
			return nil, errors.New("stripe unreachable")
		},
	}
	s := New(rm, gm)

	_, err := s.PollStatus(context.Background(), "cs_test_1")
	require.Equal(t, ErrGateway, Code(err))
}

// Confirming twice leaves one terminal state: the second flip is a no-op and
// the transaction row is re-written with the same value.
func TestConfirm_Idempotent(t *testing.T) {
	flips := 0
	var txnStatus []model.PaymentStatus
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return testRental(), nil
		},
		markPaidFn: func(ctx context.Context, sessionID string) (bool, error) {
			flips++
			return flips == 1, nil
		},
		updateTxnFn: func(ctx context.Context, sessionID string, status model.PaymentStatus, now time.Time) error {
			txnStatus = append(txnStatus, status)
			return nil
		},
	}
	gm := &gatewayMock{
		statusFn: func(ctx context.Context, sessionID string) (*striperepo.SessionStatus, error) {
			return &striperepo.SessionStatus{PaymentStatus: "paid", Status: "complete"}, nil
		},
	}
	s := New(rm, gm)

	_, err := s.PollStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	_, err = s.PollStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)

	require.Equal(t, 2, flips)
	for _, st := range txnStatus {
		require.Equal(t, model.PaymentSuccess, st)
	}
}

func TestWebhook_BadSignature(t *testing.T) {
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			t.Fatal("a rejected webhook must not touch storage")
			return nil, nil
		},
		markPaidFn: func(ctx context.Context, sessionID string) (bool, error) {
			t.Fatal("a rejected webhook must not touch storage")
			return false, nil
		},
	}
	gm := &gatewayMock{
		verifyFn: func(rawBody []byte, sigHeader string) (*striperepo.WebhookEvent, error) {
			return nil, fmt.Errorf("%w: mismatch", striperepo.ErrInvalidSignature)
		},
	}
	s := New(rm, gm)

	err := s.HandleWebhook(context.Background(), "t=1,v1=bad", []byte(`{}`))
	require.Equal(t, ErrBadSignature, Code(err))
}

func TestWebhook_CheckoutCompleted(t *testing.T) {
	var marked string
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return testRental(), nil
		},
		markPaidFn: func(ctx context.Context, sessionID string) (bool, error) {
			marked = sessionID
			return true, nil
		},
	}
	gm := &gatewayMock{
		verifyFn: func(rawBody []byte, sigHeader string) (*striperepo.WebhookEvent, error) {
			return &striperepo.WebhookEvent{Type: "checkout.session.completed", SessionID: "cs_test_1"}, nil
		},
	}
	s := New(rm, gm)

	require.NoError(t, s.HandleWebhook(context.Background(), "t=1,v1=ok", []byte(`{}`)))
	require.Equal(t, "cs_test_1", marked)
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	rm := &repoMock{
		markPaidFn: func(ctx context.Context, sessionID string) (bool, error) {
			t.Fatal("unrelated events must not confirm anything")
			return false, nil
		},
	}
	gm := &gatewayMock{
		verifyFn: func(rawBody []byte, sigHeader string) (*striperepo.WebhookEvent, error) {
			return &striperepo.WebhookEvent{Type: "payment_intent.created"}, nil
		},
	}
	s := New(rm, gm)

	require.NoError(t, s.HandleWebhook(context.Background(), "t=1,v1=ok", []byte(`{}`)))
}

func TestWebhook_UnknownSession(t *testing.T) {
	rm := &repoMock{
		bySessionFn: func(ctx context.Context, sessionID string) (*model.Rental, error) {
			return nil, sql.ErrNoRows
		},
	}
	gm := &gatewayMock{
		verifyFn: func(rawBody []byte, sigHeader string) (*striperepo.WebhookEvent, error) {
			return &striperepo.WebhookEvent{Type: "checkout.session.completed", SessionID: "cs_ghost"}, nil
		},
	}
	s := New(rm, gm)

	err := s.HandleWebhook(context.Background(), "t=1,v1=ok", []byte(`{}`))
	require.Equal(t, ErrNotFound, Code(err))
}
