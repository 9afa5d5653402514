package striperepo

import (
	"context"
	"errors"
)

// ErrInvalidSignature marks a webhook whose signature could not be verified.
// Nothing downstream may mutate state off an event carrying this error.
var ErrInvalidSignature = errors.New("invalid webhook signature")

type CreateSessionReq struct {
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CreateSessionResp struct {
	SessionID string
	URL       string
}

type SessionStatus struct {
	// PaymentStatus is Stripe's payment_status: "paid", "unpaid" or
	// "no_payment_required".
	PaymentStatus string
	// Status is the raw session status ("open", "complete", "expired").
	Status string
}

type WebhookEvent struct {
	Type      string
	SessionID string
}

type Repo interface {
	CreateSession(ctx context.Context, req CreateSessionReq) (*CreateSessionResp, error)
	GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
	VerifyWebhook(rawBody []byte, sigHeader string) (*WebhookEvent, error)
}
