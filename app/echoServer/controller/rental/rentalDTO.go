package rental

type CreateRentalReq struct {
	LockerSize string `json:"locker_size" validate:"required,oneof=small medium large"`
}

type CreateRentalResp struct {
	RentalID    string `json:"rental_id"`
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}
