package tempuser

import "time"

// TemporaryUser stages a registration until its OTP is confirmed.
type TemporaryUser struct {
	ID             int64
	Name           string
	Username       string
	Email          string
	Gender         string
	MobileNo       string
	Address        string
	PasswordHash   []byte
	ProfilePicture []byte
	OTP            string
	OTPExpiry      time.Time
	Attempts       int
	CreatedAt      time.Time
}

// Expired reports whether the OTP can no longer be used at now.
func (t TemporaryUser) Expired(now time.Time) bool {
	return !now.Before(t.OTPExpiry)
}
