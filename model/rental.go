// model/rental.go
package model

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

// Rental is a time-bounded lease of one locker. Rows are never deleted;
// expired and failed rentals stay as the audit trail. IsExpired only ever
// moves false -> true.
type Rental struct {
	ID               string        `json:"id"`
	LockerID         string        `json:"locker_id"`
	LockerNumber     int           `json:"locker_number"`
	LockerSize       LockerSize    `json:"locker_size"`
	AccessPin        string        `json:"access_pin"`
	PaymentSessionID *string       `json:"payment_session_id,omitempty"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	Amount           float64       `json:"amount"`
	Currency         string        `json:"currency"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	IsExpired        bool          `json:"is_expired"`
	CreatedAt        time.Time     `json:"created_at"`
}
