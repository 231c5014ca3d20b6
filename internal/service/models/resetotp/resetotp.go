package resetotp

import "time"

// Lifetime of a password reset OTP, counted from its creation.
const Lifetime = 5 * time.Minute

// ForgotPasswordOtp is the single pending password reset code of a user.
type ForgotPasswordOtp struct {
	ID         int64
	UserID     int64
	OTP        string
	CreatedAt  time.Time
	VerifiedAt *time.Time
	Attempts   int
}

// Expired reports whether createdAt+Lifetime is strictly before now.
func (f ForgotPasswordOtp) Expired(now time.Time) bool {
	return f.CreatedAt.Add(Lifetime).Before(now)
}
