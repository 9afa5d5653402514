package locker

type UnlockReq struct {
	LockerNumber int    `json:"locker_number" validate:"required,gt=0"`
	AccessPin    string `json:"access_pin" validate:"required,len=6,numeric"`
}

type UnlockResp struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	LockerNumber *int   `json:"locker_number,omitempty"`
}
