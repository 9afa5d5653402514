// model/transaction.go
package model

import "time"

// PaymentTransaction mirrors one checkout attempt, one-to-one with the
// rental under normal flow. Pure audit record: locker state is never
// derived from it.
type PaymentTransaction struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"session_id"`
	RentalID      string            `json:"rental_id"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
