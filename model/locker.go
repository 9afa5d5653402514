// model/locker.go
package model

import "time"

type LockerSize string

const (
	SizeSmall  LockerSize = "small"
	SizeMedium LockerSize = "medium"
	SizeLarge  LockerSize = "large"
)

// Sizes returns the size classes in display order.
func Sizes() []LockerSize {
	return []LockerSize{SizeSmall, SizeMedium, SizeLarge}
}

func ValidSize(s LockerSize) bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// 24h rental price per size, EUR.
var lockerPrices = map[LockerSize]float64{
	SizeSmall:  2.0,
	SizeMedium: 3.0,
	SizeLarge:  5.0,
}

func PricePer24h(s LockerSize) float64 { return lockerPrices[s] }

type LockerStatus string

const (
	LockerAvailable   LockerStatus = "available"
	LockerOccupied    LockerStatus = "occupied"
	LockerMaintenance LockerStatus = "maintenance"
)

type Locker struct {
	ID              string       `json:"id"`
	Number          int          `json:"number"`
	Size            LockerSize   `json:"size"`
	Status          LockerStatus `json:"status"`
	CurrentRentalID *string      `json:"current_rental_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
