package striperepo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/diogo123310/lockeremergent/util/httpx"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

type stripeClient struct {
	api           *client.API
	webhookSecret string
}

// NewStripe builds a checkout client over its own API handle; nothing is
// stored in stripe-go package globals.
func NewStripe(apiKey, webhookSecret string) Repo {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: httpx.Client(),
	})
	api := client.New(apiKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &stripeClient{api: api, webhookSecret: webhookSecret}
}

func (s *stripeClient) CreateSession(ctx context.Context, req CreateSessionReq) (*CreateSessionResp, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Locker rental (24h)"),
				},
				UnitAmount: stripe.Int64(int64(math.Round(req.Amount * 100))),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	if sess.ID == "" {
		return nil, fmt.Errorf("stripe create session: empty session id")
	}
	return &CreateSessionResp{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *stripeClient) GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get session %s: %w", sessionID, err)
	}
	return &SessionStatus{
		PaymentStatus: string(sess.PaymentStatus),
		Status:        string(sess.Status),
	}, nil
}

func (s *stripeClient) VerifyWebhook(rawBody []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(rawBody, sigHeader, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = sess.ID
	}
	return out, nil
}
